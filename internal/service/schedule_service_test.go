package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/class-enroll-api/internal/models"
	appErrors "github.com/noah-isme/class-enroll-api/pkg/errors"
)

type mockScheduleRepo struct {
	times         map[string]*models.ScheduleTime
	sections      map[string][]models.ScheduleTime
	subjectCalls  int
	studentCalls  int
	bySubject     []models.SectionSchedules
	enrolledTimes []models.ScheduleTime
	studentRows   []models.StudentScheduleRow
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, scheduleID string) (*models.ScheduleTime, error) {
	if t, ok := m.times[scheduleID]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleRepo) DetailByID(ctx context.Context, scheduleID string) (*models.ScheduleDetail, error) {
	if t, ok := m.times[scheduleID]; ok {
		return &models.ScheduleDetail{ScheduleID: t.ID, Day: t.Day, StartTime: t.StartTime, EndTime: t.EndTime}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleRepo) ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleTime, error) {
	return m.sections[sectionID], nil
}

func (m *mockScheduleRepo) SectionsForSubject(ctx context.Context, subjectCode string) ([]models.SectionSchedules, error) {
	m.subjectCalls++
	return m.bySubject, nil
}

func (m *mockScheduleRepo) ListEnrolledTimes(ctx context.Context, studentID string) ([]models.ScheduleTime, error) {
	return m.enrolledTimes, nil
}

func (m *mockScheduleRepo) ListForStudent(ctx context.Context, studentID string, onlyEnrolled bool) ([]models.StudentScheduleRow, error) {
	m.studentCalls++
	if onlyEnrolled {
		var rows []models.StudentScheduleRow
		for _, r := range m.studentRows {
			if r.Status == models.EnrollmentStatusEnrolled {
				rows = append(rows, r)
			}
		}
		return rows, nil
	}
	return m.studentRows, nil
}

type memoryCacheRepo struct {
	values map[string]interface{}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	value, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	switch target := dest.(type) {
	case *[]models.SectionSchedules:
		*target = value.([]models.SectionSchedules)
	case *[]models.StudentScheduleRow:
		*target = value.([]models.StudentScheduleRow)
	default:
		return appErrors.ErrCacheMiss
	}
	return nil
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.values == nil {
		m.values = make(map[string]interface{})
	}
	m.values[key] = value
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	delete(m.values, pattern)
	return nil
}

func (m *memoryCacheRepo) has(key string) bool {
	_, ok := m.values[key]
	return ok
}

func TestSubjectSchedulesCaches(t *testing.T) {
	repo := &mockScheduleRepo{bySubject: []models.SectionSchedules{
		{SectionID: "sec1", SectionName: "A", Slots: "Monday::08:00:00::09:00:00"},
	}}
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewScheduleService(repo, cache, zap.NewNop())

	first, err := svc.SubjectSchedules(context.Background(), "MATH201")
	require.NoError(t, err)
	second, err := svc.SubjectSchedules(context.Background(), "MATH201")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.subjectCalls)
}

func TestSubjectSchedulesCacheDisabled(t *testing.T) {
	repo := &mockScheduleRepo{}
	cache := NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	svc := NewScheduleService(repo, cache, zap.NewNop())

	_, err := svc.SubjectSchedules(context.Background(), "MATH201")
	require.NoError(t, err)
	_, err = svc.SubjectSchedules(context.Background(), "MATH201")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.subjectCalls)
}

func TestCheckConflict(t *testing.T) {
	repo := &mockScheduleRepo{
		times: map[string]*models.ScheduleTime{
			"t1": {ID: "t1", Day: models.DayMonday, StartTime: "08:00:00", EndTime: "09:00:00"},
		},
		enrolledTimes: []models.ScheduleTime{
			{ID: "held", Day: models.DayMonday, StartTime: "08:30:00", EndTime: "09:30:00"},
		},
	}
	svc := NewScheduleService(repo, NewCacheService(nil, nil, 0, nil, false), zap.NewNop())

	conflict, err := svc.CheckConflict(context.Background(), "s1", "t1")
	require.NoError(t, err)
	assert.True(t, conflict)
}

func TestCheckConflictTouchingBoundary(t *testing.T) {
	repo := &mockScheduleRepo{
		times: map[string]*models.ScheduleTime{
			"t1": {ID: "t1", Day: models.DayMonday, StartTime: "08:00:00", EndTime: "09:00:00"},
		},
		enrolledTimes: []models.ScheduleTime{
			{ID: "held", Day: models.DayMonday, StartTime: "09:00:00", EndTime: "10:00:00"},
		},
	}
	svc := NewScheduleService(repo, NewCacheService(nil, nil, 0, nil, false), zap.NewNop())

	conflict, err := svc.CheckConflict(context.Background(), "s1", "t1")
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestCheckConflictUnknownSchedule(t *testing.T) {
	svc := NewScheduleService(&mockScheduleRepo{}, NewCacheService(nil, nil, 0, nil, false), zap.NewNop())

	_, err := svc.CheckConflict(context.Background(), "s1", "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMySchedulesCaches(t *testing.T) {
	repo := &mockScheduleRepo{studentRows: []models.StudentScheduleRow{
		{EnrollmentID: "e1", Status: models.EnrollmentStatusEnrolled, Day: models.DayMonday},
	}}
	store := &memoryCacheRepo{}
	cache := NewCacheService(store, nil, time.Minute, zap.NewNop(), true)
	svc := NewScheduleService(repo, cache, zap.NewNop())

	first, err := svc.MySchedules(context.Background(), "s1")
	require.NoError(t, err)
	second, err := svc.MySchedules(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.studentCalls)
	assert.True(t, store.has(studentSchedulesKey("s1")))
}

func TestMySchedulesFiltersEnrolled(t *testing.T) {
	repo := &mockScheduleRepo{studentRows: []models.StudentScheduleRow{
		{EnrollmentID: "e1", Status: models.EnrollmentStatusEnrolled, Day: models.DayMonday},
		{EnrollmentID: "e2", Status: models.EnrollmentStatusPending, Day: models.DayTuesday},
	}}
	svc := NewScheduleService(repo, NewCacheService(nil, nil, 0, nil, false), zap.NewNop())

	rows, err := svc.MySchedules(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	all, err := svc.Timetable(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

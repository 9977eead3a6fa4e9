package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/class-enroll-api/internal/models"
	appErrors "github.com/noah-isme/class-enroll-api/pkg/errors"
)

type fakeEnrollRepo struct {
	activeSubjects map[string]bool
	created        *models.Enrollment
	insertBlocked  bool
}

func (m *fakeEnrollRepo) ExistsActiveBySubject(ctx context.Context, studentID, subjectCode string) (bool, error) {
	return m.activeSubjects[subjectCode], nil
}

func (m *fakeEnrollRepo) CreatePending(ctx context.Context, enrollment *models.Enrollment) (bool, error) {
	if m.insertBlocked {
		return false, nil
	}
	enrollment.ID = "new-enrollment"
	enrollment.Status = models.EnrollmentStatusPending
	m.created = enrollment
	return true, nil
}

type fakeScheduleReader struct {
	sections      map[string][]models.ScheduleTime
	scheduleOwner map[string]string
	subjects      map[string]*models.SectionSubject
	enrolledTimes []models.ScheduleTime
}

func (m *fakeScheduleReader) ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleTime, error) {
	return m.sections[sectionID], nil
}

func (m *fakeScheduleReader) SectionForSchedule(ctx context.Context, scheduleID string) (string, error) {
	if sectionID, ok := m.scheduleOwner[scheduleID]; ok {
		return sectionID, nil
	}
	return "", sql.ErrNoRows
}

func (m *fakeScheduleReader) SectionSubject(ctx context.Context, sectionID string) (*models.SectionSubject, error) {
	if subject, ok := m.subjects[sectionID]; ok {
		return subject, nil
	}
	return nil, sql.ErrNoRows
}

func (m *fakeScheduleReader) ListEnrolledTimes(ctx context.Context, studentID string) ([]models.ScheduleTime, error) {
	return m.enrolledTimes, nil
}

type fakeSubjectReader struct {
	prereqs map[string][]string
}

func (m *fakeSubjectReader) PrerequisiteCodes(ctx context.Context, code string) ([]string, error) {
	return m.prereqs[code], nil
}

type fakeGradeReader struct {
	passed []string
}

func (m *fakeGradeReader) ListPassedCodes(ctx context.Context, studentID string) ([]string, error) {
	return m.passed, nil
}

func newEnrollFixture(repo *fakeEnrollRepo, schedules *fakeScheduleReader, subjects *fakeSubjectReader, grades *fakeGradeReader) *EnrollmentService {
	return NewEnrollmentService(repo, schedules, subjects, grades, nil, validator.New(), zap.NewNop())
}

func defaultScheduleReader() *fakeScheduleReader {
	return &fakeScheduleReader{
		sections: map[string][]models.ScheduleTime{
			"sec1": {
				{ID: "t1", SectionID: "sec1", Day: models.DayMonday, StartTime: "08:00:00", EndTime: "09:00:00"},
				{ID: "t2", SectionID: "sec1", Day: models.DayWednesday, StartTime: "08:00:00", EndTime: "09:00:00"},
			},
		},
		scheduleOwner: map[string]string{"t1": "sec1", "t2": "sec1"},
		subjects: map[string]*models.SectionSubject{
			"sec1": {SectionID: "sec1", SubjectCode: "MATH201", SubjectName: "Calculus II"},
		},
	}
}

func TestEnrollSuccess(t *testing.T) {
	repo := &fakeEnrollRepo{activeSubjects: map[string]bool{}}
	svc := newEnrollFixture(repo, defaultScheduleReader(), &fakeSubjectReader{}, &fakeGradeReader{})

	enrollment, err := svc.Enroll(context.Background(), "s1", EnrollRequest{SectionID: "sec1"})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, models.EnrollmentStatusPending, enrollment.Status)
	assert.Equal(t, "t1", enrollment.ScheduleID)
	assert.Equal(t, "MATH201", enrollment.SubjectCode)
}

func TestEnrollBySchedule(t *testing.T) {
	repo := &fakeEnrollRepo{activeSubjects: map[string]bool{}}
	svc := newEnrollFixture(repo, defaultScheduleReader(), &fakeSubjectReader{}, &fakeGradeReader{})

	enrollment, err := svc.Enroll(context.Background(), "s1", EnrollRequest{ScheduleID: "t2"})
	require.NoError(t, err)
	assert.Equal(t, "t1", enrollment.ScheduleID)
}

func TestEnrollMissingTarget(t *testing.T) {
	svc := newEnrollFixture(&fakeEnrollRepo{}, defaultScheduleReader(), &fakeSubjectReader{}, &fakeGradeReader{})

	_, err := svc.Enroll(context.Background(), "s1", EnrollRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollUnknownSchedule(t *testing.T) {
	svc := newEnrollFixture(&fakeEnrollRepo{}, defaultScheduleReader(), &fakeSubjectReader{}, &fakeGradeReader{})

	_, err := svc.Enroll(context.Background(), "s1", EnrollRequest{ScheduleID: "ghost"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrollDuplicateSubject(t *testing.T) {
	repo := &fakeEnrollRepo{activeSubjects: map[string]bool{"MATH201": true}}
	svc := newEnrollFixture(repo, defaultScheduleReader(), &fakeSubjectReader{}, &fakeGradeReader{})

	_, err := svc.Enroll(context.Background(), "s1", EnrollRequest{SectionID: "sec1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestEnrollPrerequisiteNotPassed(t *testing.T) {
	subjects := &fakeSubjectReader{prereqs: map[string][]string{"MATH201": {"MATH101", "MATH102"}}}
	grades := &fakeGradeReader{passed: []string{"MATH101"}}
	svc := newEnrollFixture(&fakeEnrollRepo{}, defaultScheduleReader(), subjects, grades)

	_, err := svc.Enroll(context.Background(), "s1", EnrollRequest{SectionID: "sec1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "MATH102")
	assert.NotContains(t, appErr.Message, "MATH101")
}

func TestEnrollScheduleConflict(t *testing.T) {
	schedules := defaultScheduleReader()
	schedules.enrolledTimes = []models.ScheduleTime{
		{ID: "held", Day: models.DayMonday, StartTime: "07:30:00", EndTime: "08:30:00"},
	}
	repo := &fakeEnrollRepo{}
	svc := newEnrollFixture(repo, schedules, &fakeSubjectReader{}, &fakeGradeReader{})

	_, err := svc.Enroll(context.Background(), "s1", EnrollRequest{SectionID: "sec1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestEnrollTouchingSlotsAllowed(t *testing.T) {
	schedules := defaultScheduleReader()
	schedules.enrolledTimes = []models.ScheduleTime{
		{ID: "held", Day: models.DayMonday, StartTime: "09:00:00", EndTime: "10:00:00"},
	}
	repo := &fakeEnrollRepo{}
	svc := newEnrollFixture(repo, schedules, &fakeSubjectReader{}, &fakeGradeReader{})

	_, err := svc.Enroll(context.Background(), "s1", EnrollRequest{SectionID: "sec1"})
	require.NoError(t, err)
	assert.NotNil(t, repo.created)
}

func TestEnrollConcurrentDuplicate(t *testing.T) {
	repo := &fakeEnrollRepo{insertBlocked: true}
	svc := newEnrollFixture(repo, defaultScheduleReader(), &fakeSubjectReader{}, &fakeGradeReader{})

	_, err := svc.Enroll(context.Background(), "s1", EnrollRequest{SectionID: "sec1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollInvalidatesTimetableCache(t *testing.T) {
	store := &memoryCacheRepo{}
	cache := NewCacheService(store, nil, time.Minute, zap.NewNop(), true)
	require.NoError(t, store.Set(context.Background(), studentSchedulesKey("s1"), []models.StudentScheduleRow{}, time.Minute))
	svc := NewEnrollmentService(&fakeEnrollRepo{}, defaultScheduleReader(), &fakeSubjectReader{}, &fakeGradeReader{}, cache, validator.New(), zap.NewNop())

	_, err := svc.Enroll(context.Background(), "s1", EnrollRequest{SectionID: "sec1"})
	require.NoError(t, err)
	assert.False(t, store.has(studentSchedulesKey("s1")))
}

package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/class-enroll-api/internal/models"
	appErrors "github.com/noah-isme/class-enroll-api/pkg/errors"
)

type scheduleRepository interface {
	FindByID(ctx context.Context, scheduleID string) (*models.ScheduleTime, error)
	DetailByID(ctx context.Context, scheduleID string) (*models.ScheduleDetail, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleTime, error)
	SectionsForSubject(ctx context.Context, subjectCode string) ([]models.SectionSchedules, error)
	ListEnrolledTimes(ctx context.Context, studentID string) ([]models.ScheduleTime, error)
	ListForStudent(ctx context.Context, studentID string, onlyEnrolled bool) ([]models.StudentScheduleRow, error)
}

// Cache keys for the two read paths worth caching. Enrollment writes
// invalidate the per-student key so an approved request shows up on the
// next timetable read.
func subjectSchedulesKey(subjectCode string) string {
	return "schedules:subject:" + subjectCode
}

func studentSchedulesKey(studentID string) string {
	return "schedules:student:" + studentID
}

// ScheduleService serves timetable reads and ad-hoc conflict checks.
type ScheduleService struct {
	repo   scheduleRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(repo scheduleRepository, cache *CacheService, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, cache: cache, logger: logger}
}

// SubjectSchedules lists the sections of a subject grouped with their
// weekly slots. Section layouts change rarely, so the result is cached.
func (s *ScheduleService) SubjectSchedules(ctx context.Context, subjectCode string) ([]models.SectionSchedules, error) {
	key := subjectSchedulesKey(subjectCode)
	var cached []models.SectionSchedules
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	sections, err := s.repo.SectionsForSubject(ctx, subjectCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject schedules")
	}

	_ = s.cache.Set(ctx, key, sections, 0)
	return sections, nil
}

// SectionSchedules returns the meeting times of one section, day-ordered.
func (s *ScheduleService) SectionSchedules(ctx context.Context, sectionID string) ([]models.ScheduleTime, error) {
	times, err := s.repo.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list section schedules")
	}
	return times, nil
}

// Detail returns one meeting time with section and subject context.
func (s *ScheduleService) Detail(ctx context.Context, scheduleID string) (*models.ScheduleDetail, error) {
	detail, err := s.repo.DetailByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return detail, nil
}

// MySchedules returns the student's approved timetable, Monday through
// Saturday then start time. The result is cached per student until the
// next enrollment write invalidates it.
func (s *ScheduleService) MySchedules(ctx context.Context, studentID string) ([]models.StudentScheduleRow, error) {
	key := studentSchedulesKey(studentID)
	var cached []models.StudentScheduleRow
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	rows, err := s.repo.ListForStudent(ctx, studentID, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}

	_ = s.cache.Set(ctx, key, rows, 0)
	return rows, nil
}

// Timetable returns every enrollment row of the student regardless of
// status, for the full timetable view.
func (s *ScheduleService) Timetable(ctx context.Context, studentID string) ([]models.StudentScheduleRow, error) {
	rows, err := s.repo.ListForStudent(ctx, studentID, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return rows, nil
}

// CheckConflict reports whether the given meeting time collides with any
// of the student's Enrolled schedules. Only approved rows count; pending
// requests reserve nothing.
func (s *ScheduleService) CheckConflict(ctx context.Context, studentID, scheduleID string) (bool, error) {
	target, err := s.repo.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	existing, err := s.repo.ListEnrolledTimes(ctx, studentID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolled schedules")
	}

	for _, held := range existing {
		if held.Overlaps(*target) {
			return true, nil
		}
	}
	return false, nil
}

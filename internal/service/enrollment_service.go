package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-enroll-api/internal/models"
	appErrors "github.com/noah-isme/class-enroll-api/pkg/errors"
)

type enrollmentRepository interface {
	ExistsActiveBySubject(ctx context.Context, studentID, subjectCode string) (bool, error)
	CreatePending(ctx context.Context, enrollment *models.Enrollment) (bool, error)
}

type enrollmentScheduleReader interface {
	ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleTime, error)
	SectionForSchedule(ctx context.Context, scheduleID string) (string, error)
	SectionSubject(ctx context.Context, sectionID string) (*models.SectionSubject, error)
	ListEnrolledTimes(ctx context.Context, studentID string) ([]models.ScheduleTime, error)
}

type enrollmentSubjectReader interface {
	PrerequisiteCodes(ctx context.Context, code string) ([]string, error)
}

type enrollmentGradeReader interface {
	ListPassedCodes(ctx context.Context, studentID string) ([]string, error)
}

// EnrollRequest targets a section directly or through one of its meeting
// times.
type EnrollRequest struct {
	SectionID  string `json:"section_id" validate:"required_without=ScheduleID"`
	ScheduleID string `json:"schedule_id" validate:"required_without=SectionID"`
}

// EnrollmentService validates and commits enrollment requests. Checks run
// in order and the first failure aborts the request; nothing is written
// until every check passes, and the final insert re-arms the duplicate
// guard so concurrent requests cannot double-book a subject.
type EnrollmentService struct {
	repo      enrollmentRepository
	schedules enrollmentScheduleReader
	subjects  enrollmentSubjectReader
	grades    enrollmentGradeReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, schedules enrollmentScheduleReader, subjects enrollmentSubjectReader, grades enrollmentGradeReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, schedules: schedules, subjects: subjects, grades: grades, cache: cache, validator: validate, logger: logger}
}

// Enroll creates a Pending enrollment for the student into the requested
// section. The single created row references the section's first meeting
// time; approval later fans it out to the rest.
func (s *EnrollmentService) Enroll(ctx context.Context, studentID string, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "schedule_id or section_id is required")
	}

	sectionID := req.SectionID
	if sectionID == "" {
		resolved, err := s.schedules.SectionForSchedule(ctx, req.ScheduleID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve schedule")
		}
		sectionID = resolved
	}

	times, err := s.schedules.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section schedules")
	}
	if len(times) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no schedules for section")
	}

	subject, err := s.schedules.SectionSubject(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section or subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section subject")
	}

	exists, err := s.repo.ExistsActiveBySubject(ctx, studentID, subject.SubjectCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled or requested for this subject")
	}

	prereqs, err := s.subjects.PrerequisiteCodes(ctx, subject.SubjectCode)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisites")
	}
	if len(prereqs) > 0 {
		passedCodes, err := s.grades.ListPassedCodes(ctx, studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load passed grades")
		}
		passed := toSet(passedCodes)
		var missing []string
		for _, code := range prereqs {
			if _, ok := passed[code]; !ok {
				missing = append(missing, code)
			}
		}
		if len(missing) > 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("prerequisite(s) not passed: %s", strings.Join(missing, ", ")))
		}
	}

	existing, err := s.schedules.ListEnrolledTimes(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolled schedules")
	}
	for _, candidate := range times {
		for _, held := range existing {
			if held.Overlaps(candidate) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "schedule conflict with your existing enrolled schedules")
			}
		}
	}

	enrollment := &models.Enrollment{
		StudentID:   studentID,
		ScheduleID:  times[0].ID,
		SubjectCode: subject.SubjectCode,
	}
	inserted, err := s.repo.CreatePending(ctx, enrollment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}
	if !inserted {
		// A concurrent request for the same subject won the insert.
		return nil, appErrors.Clone(appErrors.ErrConflict, "already enrolled or requested for this subject")
	}

	_ = s.cache.Invalidate(ctx, studentSchedulesKey(studentID))

	s.logger.Info("enrollment requested",
		zap.String("student_id", studentID),
		zap.String("subject_code", subject.SubjectCode),
		zap.String("enrollment_id", enrollment.ID),
	)
	return enrollment, nil
}

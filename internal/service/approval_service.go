package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/class-enroll-api/internal/models"
	appErrors "github.com/noah-isme/class-enroll-api/pkg/errors"
)

type approvalRepository interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindApprovalContext(ctx context.Context, enrollmentID string) (*models.ApprovalContext, error)
	ApproveAndPropagate(ctx context.Context, approval *models.ApprovalContext) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
	ListPendingBySection(ctx context.Context, sectionID string) ([]models.EnrollmentRequest, error)
	ListEnrolledBySection(ctx context.Context, sectionID string) ([]models.EnrolledStudent, error)
}

type approvalScheduleReader interface {
	SectionForSchedule(ctx context.Context, scheduleID string) (string, error)
}

// ApprovalService drives the admin-side enrollment state machine:
// Pending moves to Enrolled (with section-wide propagation) or Dropped.
type ApprovalService struct {
	repo      approvalRepository
	schedules approvalScheduleReader
	cache     *CacheService
	logger    *zap.Logger
}

// NewApprovalService constructs ApprovalService.
func NewApprovalService(repo approvalRepository, schedules approvalScheduleReader, cache *CacheService, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{repo: repo, schedules: schedules, cache: cache, logger: logger}
}

// Approve marks the enrollment Enrolled and fills in Enrolled rows for the
// section's remaining meeting times, so the student holds the complete
// weekly pattern afterwards.
func (s *ApprovalService) Approve(ctx context.Context, enrollmentID string) error {
	approval, err := s.repo.FindApprovalContext(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if err := s.repo.ApproveAndPropagate(ctx, approval); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve enrollment")
	}

	_ = s.cache.Invalidate(ctx, studentSchedulesKey(approval.StudentID))

	s.logger.Info("enrollment approved",
		zap.String("enrollment_id", approval.EnrollmentID),
		zap.String("student_id", approval.StudentID),
		zap.String("section_id", approval.SectionID),
	)
	return nil
}

// Decline moves the enrollment to Dropped. Declining an already dropped
// request is a no-op, not an error.
func (s *ApprovalService) Decline(ctx context.Context, enrollmentID string) error {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusDropped {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, enrollmentID, models.EnrollmentStatusDropped); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decline enrollment")
	}

	_ = s.cache.Invalidate(ctx, studentSchedulesKey(enrollment.StudentID))

	s.logger.Info("enrollment declined", zap.String("enrollment_id", enrollmentID))
	return nil
}

// RequestsForSchedule lists the pending requesters of the section owning
// the given meeting time.
func (s *ApprovalService) RequestsForSchedule(ctx context.Context, scheduleID string) ([]models.EnrollmentRequest, error) {
	sectionID, err := s.schedules.SectionForSchedule(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve schedule")
	}
	requests, err := s.repo.ListPendingBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return requests, nil
}

// EnrolledForSchedule lists the enrolled students of the section owning
// the given meeting time.
func (s *ApprovalService) EnrolledForSchedule(ctx context.Context, scheduleID string) ([]models.EnrolledStudent, error) {
	sectionID, err := s.schedules.SectionForSchedule(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve schedule")
	}
	students, err := s.repo.ListEnrolledBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled students")
	}
	return students, nil
}

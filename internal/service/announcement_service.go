package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-enroll-api/internal/models"
	appErrors "github.com/noah-isme/class-enroll-api/pkg/errors"
)

type announcementRepository interface {
	Create(ctx context.Context, announcement *models.Announcement) error
	ResolveScheduleScope(ctx context.Context, scheduleID string) (*models.AnnouncementScope, error)
	ResolveSectionScope(ctx context.Context, sectionID string) (*models.AnnouncementScope, error)
	ListByAdmin(ctx context.Context, adminID string) ([]models.AnnouncementDetail, error)
	ListForStudent(ctx context.Context, scheduleIDs, subjectCodes []string) ([]models.AnnouncementDetail, error)
}

type announcementEnrollmentReader interface {
	EnrolledScopes(ctx context.Context, studentID string) ([]models.EnrollmentScope, error)
}

// CreateAnnouncementRequest posts a message scoped to one meeting time,
// one section's subject, or everyone when both scopes are empty.
type CreateAnnouncementRequest struct {
	ScheduleID string     `json:"schedule_id"`
	SectionID  string     `json:"section_id"`
	Message    string     `json:"message" validate:"required"`
	ExpiryDate *time.Time `json:"expiry_date"`
}

// AnnouncementService manages announcement posting and feeds.
type AnnouncementService struct {
	repo        announcementRepository
	enrollments announcementEnrollmentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAnnouncementService constructs AnnouncementService.
func NewAnnouncementService(repo announcementRepository, enrollments announcementEnrollmentReader, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, enrollments: enrollments, validator: validate, logger: logger}
}

// Create resolves the announcement scope and persists it. A schedule scope
// wins over a section scope; a section scope is stored as its subject.
func (s *AnnouncementService) Create(ctx context.Context, adminID string, req CreateAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil || strings.TrimSpace(req.Message) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message is required")
	}

	announcement := &models.Announcement{
		AdminID:    adminID,
		Message:    req.Message,
		ExpiryDate: req.ExpiryDate,
	}

	switch {
	case req.ScheduleID != "":
		scope, err := s.repo.ResolveScheduleScope(ctx, req.ScheduleID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve schedule scope")
		}
		announcement.ScheduleID = scope.ScheduleID
		announcement.SubjectCode = scope.SubjectCode
	case req.SectionID != "":
		scope, err := s.repo.ResolveSectionScope(ctx, req.SectionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve section scope")
		}
		announcement.SubjectCode = scope.SubjectCode
	}

	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	return announcement, nil
}

// ForStudent returns the global feed plus announcements scoped to the
// student's enrolled schedules and subjects, newest first.
func (s *AnnouncementService) ForStudent(ctx context.Context, studentID string) ([]models.AnnouncementDetail, error) {
	scopes, err := s.enrollments.EnrolledScopes(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	scheduleIDs := make([]string, 0, len(scopes))
	subjectCodes := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		if scope.ScheduleID != "" {
			scheduleIDs = append(scheduleIDs, scope.ScheduleID)
		}
		if scope.SubjectCode != "" {
			subjectCodes = append(subjectCodes, scope.SubjectCode)
		}
	}

	announcements, err := s.repo.ListForStudent(ctx, scheduleIDs, subjectCodes)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return announcements, nil
}

// ByInstructor returns the announcements posted by the admin, newest
// first.
func (s *AnnouncementService) ByInstructor(ctx context.Context, adminID string) ([]models.AnnouncementDetail, error) {
	announcements, err := s.repo.ListByAdmin(ctx, adminID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return announcements, nil
}

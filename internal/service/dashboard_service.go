package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/class-enroll-api/internal/models"
	appErrors "github.com/noah-isme/class-enroll-api/pkg/errors"
)

type dashboardRepository interface {
	Totals(ctx context.Context, instructorID string) (*models.DashboardTotals, error)
	HandledSections(ctx context.Context, instructorID string) ([]models.SectionInfo, error)
}

// DashboardService assembles the admin landing overview.
type DashboardService struct {
	repo   dashboardRepository
	logger *zap.Logger
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(repo dashboardRepository, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, logger: logger}
}

// Overview returns the instructor's totals and handled sections.
func (s *DashboardService) Overview(ctx context.Context, instructorID string) (*models.DashboardOverview, error) {
	totals, err := s.repo.Totals(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard totals")
	}

	sections, err := s.repo.HandledSections(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load handled sections")
	}
	if sections == nil {
		sections = []models.SectionInfo{}
	}

	return &models.DashboardOverview{Totals: *totals, Sections: sections}, nil
}

// Sections returns the sections the instructor handles.
func (s *DashboardService) Sections(ctx context.Context, instructorID string) ([]models.SectionInfo, error) {
	sections, err := s.repo.HandledSections(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load handled sections")
	}
	if sections == nil {
		sections = []models.SectionInfo{}
	}
	return sections, nil
}

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/class-enroll-api/internal/models"
	"github.com/noah-isme/class-enroll-api/internal/service"
)

type stubApprovalRepo struct {
	enrollments map[string]models.Enrollment
	contexts    map[string]*models.ApprovalContext
	statuses    map[string]models.EnrollmentStatus
}

func (s *stubApprovalRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := s.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubApprovalRepo) FindApprovalContext(ctx context.Context, enrollmentID string) (*models.ApprovalContext, error) {
	if a, ok := s.contexts[enrollmentID]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubApprovalRepo) ApproveAndPropagate(ctx context.Context, approval *models.ApprovalContext) error {
	return nil
}

func (s *stubApprovalRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	if s.statuses == nil {
		s.statuses = make(map[string]models.EnrollmentStatus)
	}
	s.statuses[id] = status
	return nil
}

func (s *stubApprovalRepo) ListPendingBySection(ctx context.Context, sectionID string) ([]models.EnrollmentRequest, error) {
	return nil, nil
}

func (s *stubApprovalRepo) ListEnrolledBySection(ctx context.Context, sectionID string) ([]models.EnrolledStudent, error) {
	return nil, nil
}

type stubSectionResolver struct{}

func (s *stubSectionResolver) SectionForSchedule(ctx context.Context, scheduleID string) (string, error) {
	return "", sql.ErrNoRows
}

func newAdminFixture(repo *stubApprovalRepo) *AdminHandler {
	approvals := service.NewApprovalService(repo, &stubSectionResolver{}, nil, zap.NewNop())
	return NewAdminHandler(nil, approvals, nil, nil, nil)
}

func TestAdminHandlerDeclineNoContent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubApprovalRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", Status: models.EnrollmentStatusPending},
	}}
	handler := newAdminFixture(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/request/e1/decline", nil)
	c.Params = gin.Params{{Key: "id", Value: "e1"}}

	handler.Decline(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
	assert.Equal(t, models.EnrollmentStatusDropped, repo.statuses["e1"])
}

func TestAdminHandlerDeclineNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAdminFixture(&stubApprovalRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/request/ghost/decline", nil)
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	handler.Decline(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminHandlerApproveOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubApprovalRepo{contexts: map[string]*models.ApprovalContext{
		"e1": {EnrollmentID: "e1", StudentID: "s1", SectionID: "sec1"},
	}}
	handler := newAdminFixture(repo)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/admin/request/e1/approve", nil)
	c.Params = gin.Params{{Key: "id", Value: "e1"}}

	handler.Approve(c)

	assert.Equal(t, http.StatusOK, rec.Code)
}

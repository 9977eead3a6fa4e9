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

type mockApprovalRepo struct {
	enrollments map[string]models.Enrollment
	contexts    map[string]*models.ApprovalContext
	approved    []string
	statuses    map[string]models.EnrollmentStatus
	pending     []models.EnrollmentRequest
	enrolled    []models.EnrolledStudent
}

func (m *mockApprovalRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApprovalRepo) FindApprovalContext(ctx context.Context, enrollmentID string) (*models.ApprovalContext, error) {
	if a, ok := m.contexts[enrollmentID]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApprovalRepo) ApproveAndPropagate(ctx context.Context, approval *models.ApprovalContext) error {
	m.approved = append(m.approved, approval.EnrollmentID)
	return nil
}

func (m *mockApprovalRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	if m.statuses == nil {
		m.statuses = make(map[string]models.EnrollmentStatus)
	}
	m.statuses[id] = status
	return nil
}

func (m *mockApprovalRepo) ListPendingBySection(ctx context.Context, sectionID string) ([]models.EnrollmentRequest, error) {
	return m.pending, nil
}

func (m *mockApprovalRepo) ListEnrolledBySection(ctx context.Context, sectionID string) ([]models.EnrolledStudent, error) {
	return m.enrolled, nil
}

type mockSectionResolver struct {
	owners map[string]string
}

func (m *mockSectionResolver) SectionForSchedule(ctx context.Context, scheduleID string) (string, error) {
	if sectionID, ok := m.owners[scheduleID]; ok {
		return sectionID, nil
	}
	return "", sql.ErrNoRows
}

func TestApprovePropagates(t *testing.T) {
	repo := &mockApprovalRepo{contexts: map[string]*models.ApprovalContext{
		"e1": {EnrollmentID: "e1", StudentID: "s1", SectionID: "sec1"},
	}}
	svc := NewApprovalService(repo, &mockSectionResolver{}, nil, zap.NewNop())

	err := svc.Approve(context.Background(), "e1")
	require.NoError(t, err)
	assert.Contains(t, repo.approved, "e1")
}

func TestApproveNotFound(t *testing.T) {
	svc := NewApprovalService(&mockApprovalRepo{}, &mockSectionResolver{}, nil, zap.NewNop())

	err := svc.Approve(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDecline(t *testing.T) {
	repo := &mockApprovalRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", Status: models.EnrollmentStatusPending},
	}}
	svc := NewApprovalService(repo, &mockSectionResolver{}, nil, zap.NewNop())

	err := svc.Decline(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusDropped, repo.statuses["e1"])
}

func TestDeclineIdempotent(t *testing.T) {
	repo := &mockApprovalRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", Status: models.EnrollmentStatusDropped},
	}}
	svc := NewApprovalService(repo, &mockSectionResolver{}, nil, zap.NewNop())

	err := svc.Decline(context.Background(), "e1")
	require.NoError(t, err)
	assert.Empty(t, repo.statuses)
}

func TestDeclineNotFound(t *testing.T) {
	svc := NewApprovalService(&mockApprovalRepo{}, &mockSectionResolver{}, nil, zap.NewNop())

	err := svc.Decline(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApproveInvalidatesTimetableCache(t *testing.T) {
	repo := &mockApprovalRepo{contexts: map[string]*models.ApprovalContext{
		"e1": {EnrollmentID: "e1", StudentID: "s1", SectionID: "sec1"},
	}}
	store := &memoryCacheRepo{}
	cache := NewCacheService(store, nil, time.Minute, zap.NewNop(), true)
	require.NoError(t, store.Set(context.Background(), studentSchedulesKey("s1"), []models.StudentScheduleRow{}, time.Minute))
	svc := NewApprovalService(repo, &mockSectionResolver{}, cache, zap.NewNop())

	require.NoError(t, svc.Approve(context.Background(), "e1"))
	assert.False(t, store.has(studentSchedulesKey("s1")))
}

func TestDeclineInvalidatesTimetableCache(t *testing.T) {
	repo := &mockApprovalRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", Status: models.EnrollmentStatusPending},
	}}
	store := &memoryCacheRepo{}
	cache := NewCacheService(store, nil, time.Minute, zap.NewNop(), true)
	require.NoError(t, store.Set(context.Background(), studentSchedulesKey("s1"), []models.StudentScheduleRow{}, time.Minute))
	svc := NewApprovalService(repo, &mockSectionResolver{}, cache, zap.NewNop())

	require.NoError(t, svc.Decline(context.Background(), "e1"))
	assert.False(t, store.has(studentSchedulesKey("s1")))
}

func TestRequestsForSchedule(t *testing.T) {
	repo := &mockApprovalRepo{pending: []models.EnrollmentRequest{
		{EnrollmentID: "e1", StudentID: "s1", Name: "Test Student"},
	}}
	resolver := &mockSectionResolver{owners: map[string]string{"t1": "sec1"}}
	svc := NewApprovalService(repo, resolver, nil, zap.NewNop())

	requests, err := svc.RequestsForSchedule(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, requests, 1)

	_, err = svc.RequestsForSchedule(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEnrolledForSchedule(t *testing.T) {
	repo := &mockApprovalRepo{enrolled: []models.EnrolledStudent{
		{StudentID: "s1", Name: "Test Student"},
	}}
	resolver := &mockSectionResolver{owners: map[string]string{"t1": "sec1"}}
	svc := NewApprovalService(repo, resolver, nil, zap.NewNop())

	students, err := svc.EnrolledForSchedule(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

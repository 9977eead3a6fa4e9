package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-enroll-api/internal/service"
	appErrors "github.com/noah-isme/class-enroll-api/pkg/errors"
	"github.com/noah-isme/class-enroll-api/pkg/response"
)

// AdminHandler serves the instructor-facing workflow endpoints.
type AdminHandler struct {
	dashboards *service.DashboardService
	approvals  *service.ApprovalService
	schedules  *service.ScheduleService
	exports    *service.ExportService
	metrics    *service.MetricsService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(dashboards *service.DashboardService, approvals *service.ApprovalService, schedules *service.ScheduleService, exports *service.ExportService, metrics *service.MetricsService) *AdminHandler {
	return &AdminHandler{
		dashboards: dashboards,
		approvals:  approvals,
		schedules:  schedules,
		exports:    exports,
		metrics:    metrics,
	}
}

// Dashboard godoc
// @Summary Instructor dashboard
// @Description Totals plus the sections the instructor handles
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	overview, err := h.dashboards.Overview(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, overview)
}

// Subjects godoc
// @Summary Sections handled by the instructor
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/subjects [get]
func (h *AdminHandler) Subjects(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sections, err := h.dashboards.Sections(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sections)
}

// SectionSchedules godoc
// @Summary Meeting times of a section
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Section id"
// @Success 200 {object} response.Envelope
// @Router /admin/section/{id}/schedules [get]
func (h *AdminHandler) SectionSchedules(c *gin.Context) {
	times, err := h.schedules.SectionSchedules(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, times)
}

// Enrolled godoc
// @Summary Enrolled students of a section
// @Description Distinct students enrolled in the section owning the meeting time
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/schedule/{id}/enrolled [get]
func (h *AdminHandler) Enrolled(c *gin.Context) {
	students, err := h.approvals.EnrolledForSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, students)
}

// Requests godoc
// @Summary Pending enrollment requests of a section
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/schedule/{id}/requests [get]
func (h *AdminHandler) Requests(c *gin.Context) {
	requests, err := h.approvals.RequestsForSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, requests)
}

// Approve godoc
// @Summary Approve an enrollment request
// @Description Marks the request Enrolled and fills in the section's remaining meeting times
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/request/{id}/approve [post]
func (h *AdminHandler) Approve(c *gin.Context) {
	if err := h.approvals.Approve(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordEnrollmentDecision("approved")
	response.JSON(c, http.StatusOK, gin.H{"status": "approved"})
}

// Decline godoc
// @Summary Decline an enrollment request
// @Description Moves the request to Dropped; declining twice is a no-op
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Enrollment id"
// @Success 204 "No Content"
// @Failure 404 {object} response.Envelope
// @Router /admin/request/{id}/decline [post]
func (h *AdminHandler) Decline(c *gin.Context) {
	if err := h.approvals.Decline(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordEnrollmentDecision("declined")
	response.NoContent(c)
}

// ExportRoster godoc
// @Summary Download the section roster
// @Tags Admin
// @Produce text/csv
// @Security BearerAuth
// @Param id path string true "Schedule id"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /admin/schedule/{id}/enrolled/export [get]
func (h *AdminHandler) ExportRoster(c *gin.Context) {
	result, err := h.exports.SectionRoster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-enroll-api/internal/service"
	appErrors "github.com/noah-isme/class-enroll-api/pkg/errors"
	"github.com/noah-isme/class-enroll-api/pkg/response"
)

// StudentHandler serves the student-facing enrollment endpoints.
type StudentHandler struct {
	students    *service.StudentService
	eligibility *service.EligibilityService
	enrollments *service.EnrollmentService
	schedules   *service.ScheduleService
	exports     *service.ExportService
	metrics     *service.MetricsService
}

// NewStudentHandler creates a new handler.
func NewStudentHandler(students *service.StudentService, eligibility *service.EligibilityService, enrollments *service.EnrollmentService, schedules *service.ScheduleService, exports *service.ExportService, metrics *service.MetricsService) *StudentHandler {
	return &StudentHandler{
		students:    students,
		eligibility: eligibility,
		enrollments: enrollments,
		schedules:   schedules,
		exports:     exports,
		metrics:     metrics,
	}
}

// Me godoc
// @Summary Student profile
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/me [get]
func (h *StudentHandler) Me(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	student, err := h.students.Profile(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student)
}

// AvailableSubjects godoc
// @Summary Subjects the student may enroll in
// @Description Current-year offering plus retakes, gated by prerequisites and minus active enrollments
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Param semester query string false "Target semester (defaults to configured semester)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/available-subjects [get]
func (h *StudentHandler) AvailableSubjects(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	subjects, err := h.eligibility.AvailableSubjects(c.Request.Context(), claims.UserID, c.Query("semester"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, subjects)
}

// SubjectSchedules godoc
// @Summary Sections offering a subject
// @Description Sections grouped with their weekly slots, day-ordered
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Param code path string true "Subject code"
// @Success 200 {object} response.Envelope
// @Router /student/subject/{code}/schedules [get]
func (h *StudentHandler) SubjectSchedules(c *gin.Context) {
	sections, err := h.schedules.SubjectSchedules(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, sections)
}

// Enroll godoc
// @Summary Request enrollment into a section
// @Description Creates a Pending enrollment after eligibility, duplicate, prerequisite, and schedule-conflict checks
// @Tags Student
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.EnrollRequest true "Enroll payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student/enroll [post]
func (h *StudentHandler) Enroll(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enroll payload"))
		return
	}

	enrollment, err := h.enrollments.Enroll(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordEnrollmentDecision("requested")
	response.Created(c, enrollment)
}

// MySchedules godoc
// @Summary Approved weekly schedule
// @Description Enrolled rows ordered Monday through Saturday then start time
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /student/my-schedules [get]
func (h *StudentHandler) MySchedules(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	rows, err := h.schedules.MySchedules(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rows)
}

// ExportMySchedules godoc
// @Summary Download the approved schedule
// @Tags Student
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /student/my-schedules/export [get]
func (h *StudentHandler) ExportMySchedules(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	result, err := h.exports.StudentTimetable(c.Request.Context(), claims.UserID, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-enroll-api/internal/service"
	appErrors "github.com/noah-isme/class-enroll-api/pkg/errors"
	"github.com/noah-isme/class-enroll-api/pkg/response"
)

// ScheduleHandler serves timetable reads and conflict checks.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler creates a new handler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// Timetable godoc
// @Summary Full timetable
// @Description Every enrollment row of the student regardless of status
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Timetable(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	rows, err := h.schedules.Timetable(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, rows)
}

// Detail godoc
// @Summary Schedule detail
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule/{id} [get]
func (h *ScheduleHandler) Detail(c *gin.Context) {
	detail, err := h.schedules.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail)
}

// CheckConflict godoc
// @Summary Check a meeting time against held schedules
// @Description Reports whether the schedule collides with any Enrolled row of the student
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body object{schedule_id=string} true "Target schedule"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule/check-conflict [post]
func (h *ScheduleHandler) CheckConflict(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		ScheduleID string `json:"schedule_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "schedule_id is required"))
		return
	}

	conflict, err := h.schedules.CheckConflict(c.Request.Context(), claims.UserID, payload.ScheduleID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"conflict": conflict})
}

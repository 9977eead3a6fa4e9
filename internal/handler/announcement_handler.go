package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-enroll-api/internal/service"
	appErrors "github.com/noah-isme/class-enroll-api/pkg/errors"
	"github.com/noah-isme/class-enroll-api/pkg/response"
)

// AnnouncementHandler serves announcement posting and feeds.
type AnnouncementHandler struct {
	announcements *service.AnnouncementService
}

// NewAnnouncementHandler creates a new handler.
func NewAnnouncementHandler(announcements *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements}
}

// Create godoc
// @Summary Post an announcement
// @Description Scope to one meeting time, one section's subject, or everyone
// @Tags Announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateAnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid announcement payload"))
		return
	}

	announcement, err := h.announcements.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, announcement)
}

// ForStudent godoc
// @Summary Announcements visible to the student
// @Description Global feed plus announcements scoped to enrolled schedules and subjects
// @Tags Announcements
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /announcements/for-student [get]
func (h *AnnouncementHandler) ForStudent(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	announcements, err := h.announcements.ForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, announcements)
}

// Mine godoc
// @Summary Announcements posted by the instructor
// @Tags Announcements
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /announcements/mine [get]
func (h *AnnouncementHandler) Mine(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	announcements, err := h.announcements.ByInstructor(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, announcements)
}

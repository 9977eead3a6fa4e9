package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-enroll-api/internal/middleware"
	"github.com/noah-isme/class-enroll-api/internal/models"
)

// currentClaims extracts the authenticated user's claims from the gin
// context. The JWT middleware guarantees presence on protected routes.
func currentClaims(c *gin.Context) (*models.JWTClaims, bool) {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}

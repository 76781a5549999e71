package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/interview-scheduler-api/internal/middleware"
	"github.com/noah-isme/interview-scheduler-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorIDFromContext returns the acting user's ID for audit trails, or nil for
// anonymous access.
func actorIDFromContext(c *gin.Context) *string {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		return nil
	}
	id := claims.UserID
	return &id
}

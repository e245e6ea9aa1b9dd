package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/clockwise-hq/timetrack-api/internal/middleware"
	"github.com/clockwise-hq/timetrack-api/internal/models"
	"github.com/clockwise-hq/timetrack-api/internal/service"
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

func actorFromContext(c *gin.Context) (service.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		return service.Actor{}, false
	}
	return service.Actor{
		ID:        claims.UserID,
		Email:     claims.Email,
		PayGroup:  claims.PayGroup,
		IsManager: claims.IsManager,
		IsAdmin:   claims.IsAdmin,
	}, true
}

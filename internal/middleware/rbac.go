package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	appErrors "github.com/clockwise-hq/timetrack-api/pkg/errors"
	"github.com/clockwise-hq/timetrack-api/pkg/response"
)

// RequireManager allows managers and admins through.
func RequireManager() gin.HandlerFunc {
	return requireFlags(func(claims *models.JWTClaims) bool {
		return claims.IsManager || claims.IsAdmin
	})
}

// RequireAdmin allows admins only.
func RequireAdmin() gin.HandlerFunc {
	return requireFlags(func(claims *models.JWTClaims) bool {
		return claims.IsAdmin
	})
}

func requireFlags(allowed func(*models.JWTClaims) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok || !allowed(claims) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

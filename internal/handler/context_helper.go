package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/siapptn-tryout-api/internal/middleware"
	"github.com/noah-isme/siapptn-tryout-api/internal/models"
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

// requesterID names the operator behind the request, or "anonymous" when auth is off.
func requesterID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil && claims.UserID != "" {
		return claims.UserID
	}
	return "anonymous"
}

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/siapptn-tryout-api/internal/models"
	"github.com/noah-isme/siapptn-tryout-api/pkg/logger"
)

// Audit records who triggered a mutating tryout action and how it ended. Entries go to
// the "audit" logger so they can be routed separately from request logs.
func Audit(l *zap.Logger, action string) gin.HandlerFunc {
	if l == nil {
		l = zap.NewNop()
	}
	audit := l.Named("audit")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		actor := "anonymous"
		if value, ok := c.Get(ContextUserKey); ok {
			if claims, ok := value.(*models.JWTClaims); ok && claims.UserID != "" {
				actor = claims.UserID
			}
		}

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("actor", actor),
			zap.String("tryout_id", logger.TryoutParam(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if c.Writer.Status() >= 400 {
			audit.Warn("tryout action failed", fields...)
			return
		}
		audit.Info("tryout action", fields...)
	}
}

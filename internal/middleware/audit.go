package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/vanity-bot/internal/models"
)

// Audit records successful operator mutations of a community.
func Audit(logger *zap.Logger, action string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("audit")
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		operator := ""
		var role models.OperatorRole
		if value, ok := c.Get(ContextOperatorKey); ok {
			if claims, ok := value.(*models.JWTClaims); ok {
				operator = claims.Operator
				role = claims.Role
			}
		}

		logger.Info(action,
			zap.String("operator", operator),
			zap.String("role", string(role)),
			zap.String("community_id", c.Param("id")),
			zap.String("path", c.FullPath()),
			zap.String("method", c.Request.Method),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
		)
	}
}

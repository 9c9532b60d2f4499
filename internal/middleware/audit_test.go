package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/vanity-bot/internal/models"
)

func auditRouter(logger *zap.Logger, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextOperatorKey, &models.JWTClaims{Operator: "ops", Role: models.OperatorAdmin})
		c.Next()
	})
	r.PUT("/communities/:id/config/role", Audit(logger, "config.role"), func(c *gin.Context) {
		c.Status(status)
	})
	return r
}

func TestAuditLogsSuccessfulMutation(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := auditRouter(zap.New(core), http.StatusOK)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/communities/100/config/role", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "config.role", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "ops", fields["operator"])
	assert.Equal(t, "ADMIN", fields["role"])
	assert.Equal(t, "100", fields["community_id"])
}

func TestAuditSkipsFailedRequests(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := auditRouter(zap.New(core), http.StatusBadRequest)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/communities/100/config/role", nil))

	assert.Equal(t, 0, logs.Len())
}

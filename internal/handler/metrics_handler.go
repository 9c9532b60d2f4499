package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vanity-bot/internal/service"
	"github.com/noah-isme/vanity-bot/pkg/response"
)

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type sweeper interface {
	SweepOnce(ctx context.Context) (*service.SweepReport, error)
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	sweeper sweeper
	checks  map[string]ReadinessCheck
	pending func() int
}

// NewMetricsHandler constructs a metrics handler. pending reports the intake
// backlog and may be nil.
func NewMetricsHandler(metrics *service.MetricsService, sweeper sweeper, checks map[string]ReadinessCheck, pending func() int) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, sweeper: sweeper, checks: checks, pending: pending}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness probes.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs every readiness check.
func (h *MetricsHandler) Ready(c *gin.Context) {
	failures := map[string]string{}
	for name, check := range h.checks {
		if err := check(c.Request.Context()); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failures})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Stats godoc
// @Summary Runtime counters
// @Tags Operations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /v1/stats [get]
func (h *MetricsHandler) Stats(c *gin.Context) {
	if h.pending == nil {
		response.JSON(c, http.StatusOK, h.metrics.Snapshot())
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), map[string]interface{}{"intake_pending": h.pending()})
}

// Sweep godoc
// @Summary Run a full sweep now
// @Tags Operations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /v1/sweeps [post]
func (h *MetricsHandler) Sweep(c *gin.Context) {
	report, err := h.sweeper.SweepOnce(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

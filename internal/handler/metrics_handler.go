package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YashVG/techprep-sub000/internal/service"
)

// Pinger reports storage reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	db      Pinger
	name    string
	version string
}

// NewMetricsHandler constructs a metrics handler. db may be nil, in which case readiness always succeeds.
func NewMetricsHandler(metrics *service.MetricsService, db Pinger, name, version string) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, db: db, name: name, version: version}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready pings the database.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Banner identifies the service at the root path.
func (h *MetricsHandler) Banner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"name": h.name, "version": h.version, "status": "running"})
}

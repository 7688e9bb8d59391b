package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReadinessChecker reports whether a recommendation snapshot is published.
type ReadinessChecker interface {
	Ready() bool
}

type HealthHandler struct {
	ready   ReadinessChecker
	metrics http.Handler
}

func NewHealthHandler(ready ReadinessChecker, metrics http.Handler) *HealthHandler {
	return &HealthHandler{ready: ready, metrics: metrics}
}

// GET /
func (h *HealthHandler) Index(c *gin.Context) {
	c.String(http.StatusOK, "Movie Database")
}

// GET /healthcheck
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /readyz
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.ready == nil || !h.ready.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

// GET /metrics
func (h *HealthHandler) Metrics(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusNotFound)
		return
	}
	h.metrics.ServeHTTP(c.Writer, c.Request)
}

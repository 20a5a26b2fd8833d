package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lovpen/lovpen-server/internal/handlers"
)

const (
	defaultMetricsPath = "/metrics"
	adminLoginRequests = 10
	adminLoginWindow   = time.Minute
)

func registerHealthRoutes(r *gin.Engine, deps Dependencies) {
	if !deps.Config.Monitoring.Health.Enabled || deps.Health == nil {
		r.GET("/health", disabledHealthHandler)
		r.GET("/health/live", disabledHealthHandler)
		r.GET("/health/ready", disabledHealthHandler)
		return
	}

	h := handlers.NewHealthHandler(deps.Health)
	r.GET("/health", h.Summary)
	r.GET("/health/live", h.Live)
	r.GET("/health/ready", h.Ready)
}

func registerMetricsRoutes(r *gin.Engine, deps Dependencies) {
	prom := deps.Config.Monitoring.Prometheus
	if !prom.Enabled {
		return
	}
	path := strings.TrimSpace(prom.Endpoint)
	if path == "" {
		path = defaultMetricsPath
	}
	r.GET(path, gin.WrapH(promhttp.Handler()))
}

func disabledHealthHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"status":  "disabled",
	})
}

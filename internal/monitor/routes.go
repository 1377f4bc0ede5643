package monitor

import (
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/powermon/internal/domain"
	"github.com/danmuck/powermon/internal/observability"
	"github.com/danmuck/powermon/internal/protocol/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const apiVersion = "0.1.0"

type uartRequest struct {
	Data string `json:"data" binding:"required"`
}

func newRouter(name string, corsOrigins []string) *gin.Engine {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestID())
	r.Use(observability.RequestLogger(observability.InitLogger(name)))
	r.Use(observability.RequestMetricsMiddleware(name))
	if origins := normalizeOrigins(corsOrigins); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: origins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	return r
}

// Handler returns the HTTP API. Routes are registered once.
func (s *Service) Handler() http.Handler {
	s.routesOnce.Do(s.registerRoutes)
	return s.router
}

func (s *Service) registerRoutes() {
	r := s.router

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(s.started).String(),
			"component": s.cfg.Name,
			"version":   apiVersion,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"connection": s.indicator.State(),
			"device":     s.console.State(),
			"sessions":   s.supervisor.Sessions(),
			"dispatched": s.dispatcher.Dispatched(),
			"unknown":    s.dispatcher.Unknown(),
		})
	})

	r.GET("/api/series", func(c *gin.Context) {
		metrics := s.store.Metrics()
		names := make([]string, 0, len(metrics))
		for _, m := range metrics {
			names = append(names, m.String())
		}
		c.JSON(http.StatusOK, gin.H{
			"metrics":  names,
			"capacity": s.store.Capacity(),
		})
	})

	r.GET("/api/series/:metric", func(c *gin.Context) {
		metric, err := domain.ParseMetric(c.Param("metric"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		snap, err := s.store.Snapshot(metric)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, snap)
	})

	r.POST("/api/uart", func(c *gin.Context) {
		var req uartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.SendInput(c.Request.Context(), req.Data); err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, session.ErrNotOpen) {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"sent": len(req.Data)})
	})
}

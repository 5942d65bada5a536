// Package server exposes the monitor to panel widgets over HTTP.
//
//	GET  /healthz              liveness, no auth
//	GET  /metrics              Prometheus gauges, no auth
//	GET  /api/speed            latest reading
//	GET  /api/modes            display modes, current one flagged
//	GET  /api/config           persisted settings
//	POST /api/click/:button    left | middle | right, same as clicking the widget
//	POST /api/mode/next        cycle display mode
//	POST /api/font/next        cycle font mode
//	POST /api/reset            reset the cumulative total
//	GET  /api/stream           websocket, one JSON reading per tick
//
// /api routes require "Authorization: Bearer <token>" (or ?token=) when a token is configured.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vesaa/netspeed/internal/agent"
	"github.com/vesaa/netspeed/internal/config"
	"github.com/vesaa/netspeed/internal/models"
)

// ConfigView is the read side of the config store.
type ConfigView interface {
	Config() config.Config
	Path() string
}

// RegisterRoutes wires every endpoint on r.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api", TokenMiddleware(s.token))
	{
		api.GET("/speed", s.handleSpeed)
		api.GET("/modes", s.handleModes)
		api.GET("/config", s.handleConfig)
		api.POST("/click/:button", s.handleClick)
		api.POST("/mode/next", s.handleNextMode)
		api.POST("/font/next", s.handleNextFont)
		api.POST("/reset", s.handleReset)
		api.GET("/stream", s.handleStream)
	}
}

// ── Handlers ──────────────────────────────────────────────────────────────────

func (s *Server) handleSpeed(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.monitor.Latest()})
}

type modeInfo struct {
	Mode        models.DisplayMode `json:"mode"`
	Description string             `json:"description"`
	Current     bool               `json:"current"`
}

func (s *Server) handleModes(c *gin.Context) {
	current := s.monitor.Mode()
	modes := make([]modeInfo, 0, 5)
	for _, m := range models.AllModes() {
		modes = append(modes, modeInfo{Mode: m, Description: m.Description(), Current: m == current})
	}
	c.JSON(http.StatusOK, gin.H{"data": modes})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.config.Config(), "path": s.config.Path()})
}

// handleClick maps a widget click to the monitor.
//
//	POST /api/click/left
func (s *Server) handleClick(c *gin.Context) {
	button, err := agent.ParseButton(c.Param("button"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.respond(c, func() (agent.Reading, error) { return s.monitor.Click(c.Request.Context(), button) })
}

func (s *Server) handleNextMode(c *gin.Context) {
	s.respond(c, s.monitor.CycleMode)
}

func (s *Server) handleNextFont(c *gin.Context) {
	s.respond(c, s.monitor.CycleFontMode)
}

func (s *Server) handleReset(c *gin.Context) {
	s.respond(c, func() (agent.Reading, error) { return s.monitor.ResetTotal(c.Request.Context()) })
}

// respond runs an action, streams the refreshed reading and returns it.
// Persistence failures are reported as a warning next to the reading.
func (s *Server) respond(c *gin.Context, action func() (agent.Reading, error)) {
	r, err := action()
	s.hub.Broadcast(r)
	body := gin.H{"data": r}
	if err != nil {
		body["warning"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

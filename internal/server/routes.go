package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/jasselhoff/festival-planner/internal/errors"
	"github.com/jasselhoff/festival-planner/internal/metrics"
)

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(metrics.HTTPMiddleware())
	s.echo.Use(apperrors.Middleware())

	// Observability (no auth)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// WebSocket upgrade authenticates via the token query parameter, not the
	// Authorization header, so it sits outside the requireAuth group.
	s.echo.GET("/ws", s.handleWebSocket)

	api := s.echo.Group("/api/v1", s.requireAuth)

	api.POST("/events", s.handleCreateEvent)
	api.GET("/events", s.handleListEvents)
	api.GET("/events/:eventID", s.handleGetEvent)
	api.POST("/events/:eventID/days", s.handleAddDay)
	api.POST("/events/:eventID/stages", s.handleAddStage)
	api.POST("/events/:eventID/acts", s.handleAddAct)
	api.GET("/events/:eventID/lineup", s.handleGetLineup)

	api.POST("/groups", s.handleCreateGroup)
	api.GET("/groups", s.handleListGroups)
	api.GET("/groups/:groupID", s.handleGetGroup)
	api.POST("/groups/:groupID/invites", s.handleCreateInvite)
	api.POST("/invites/:code", s.handleRedeemInvite)

	api.PUT("/groups/:groupID/selections/:actID", s.handlePutSelection)
	api.DELETE("/groups/:groupID/selections/:actID", s.handleRemoveSelection)
	api.GET("/groups/:groupID/selections", s.handleListSelections)
	api.GET("/groups/:groupID/conflicts", s.handleGroupConflicts)
	api.GET("/groups/:groupID/presence", s.handleGroupPresence)
	api.POST("/groups/:groupID/playlist", s.handleBuildPlaylist)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}

package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jasselhoff/festival-planner/internal/config"
	"github.com/jasselhoff/festival-planner/internal/domain"
	"github.com/jasselhoff/festival-planner/internal/hub"
)

// HealthCheck is one named readiness probe. Checks run in order; the first
// failure marks the service unready.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app      domain.AppService
	verifier domain.TokenVerifier
	hub      *hub.Hub

	limits       *ConnectionLimits
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, app domain.AppService, verifier domain.TokenVerifier, h *hub.Hub, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		app:          app,
		verifier:     verifier,
		hub:          h,
		limits:       NewConnectionLimits(int64(cfg.MaxWebSocketConnections), cfg.MaxConnectionsPerIP, float64(cfg.ConnectionRatePerIP), cfg.ConnectionBurstPerIP),
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

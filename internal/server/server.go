// Package server exposes benchmark telemetry and backend health over HTTP
// while a run is in progress.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/DjordjeVuckovic/fts-bench/internal/apperr"
	mw "github.com/DjordjeVuckovic/fts-bench/pkg/middleware"
	pkgserver "github.com/DjordjeVuckovic/fts-bench/pkg/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	GracefulShutdownTimeout = 10 * time.Second
	healthCheckTimeout      = 5 * time.Second
)

type Server struct {
	Echo *echo.Echo

	cfg    *Config
	health *pkgserver.NamedHealthChecker
}

func NewServer(cfg *Config, gatherer prometheus.Gatherer, health *pkgserver.NamedHealthChecker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.GlobalErrorHandler()

	if health == nil {
		health = pkgserver.NewNamedHealthChecker()
	}

	s := &Server{
		Echo:   e,
		cfg:    cfg,
		health: health,
	}

	s.setupMiddlewares()
	s.setupRoutes(gatherer)

	return s
}

func (s *Server) setupMiddlewares() {
	s.Echo.Use(mw.Logger(mw.WithSkipPaths("/metrics")))
	s.Echo.Use(middleware.Recover())
}

func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	s.Echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	s.Echo.GET("/health", s.handleHealth)
}

type healthResponse struct {
	Status     string          `json:"status"`
	Components map[string]bool `json:"components,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	components := s.health.Status(ctx)
	status, code := "ok", http.StatusOK
	for _, ok := range components {
		if !ok {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}
	return c.JSON(code, healthResponse{Status: status, Components: components})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Metrics server listening", "addr", s.cfg.Addr)
		if err := s.Echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()

	if err := s.Echo.Shutdown(shutdownCtx); err != nil {
		slog.Error("Metrics server shutdown failed", "error", err)
		return err
	}
	return nil
}

package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"airsense/internal/apperr"
)

const GracefulShutdownTimeout = 10 * time.Second

type Config struct {
	Port        string
	UseHTTP2    bool
	CorsOrigins []string
}

type Server struct {
	Echo *echo.Echo

	cfg    Config
	logger *slog.Logger
}

func NewServer(e *echo.Echo, cfg Config, logger *slog.Logger) *Server {
	e.HideBanner = true
	e.HidePort = true
	e.DisableHTTP2 = !cfg.UseHTTP2
	e.HTTPErrorHandler = apperr.GlobalErrorHandler(logger)

	if len(cfg.CorsOrigins) == 0 {
		cfg.CorsOrigins = []string{"*"}
	}

	s := &Server{
		Echo:   e,
		cfg:    cfg,
		logger: logger,
	}
	s.setupMiddlewares()

	return s
}

func (s *Server) setupMiddlewares() {
	s.Echo.Use(RequestLogger(s.logger))
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.cfg.CorsOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "port", s.cfg.Port)
		if err := s.Echo.Start(":" + s.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down api")
	if err := s.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

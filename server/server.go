package server

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"hubsearch/auth"
	"hubsearch/config"
	"hubsearch/port"
	"hubsearch/rest"
)

// Server hosts the search HTTP API.
type Server struct {
	config *config.Config
	echo   *echo.Echo
	logger *slog.Logger
}

func New(cfg *config.Config, engine port.SearchEngine, verifier *auth.Verifier, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = cfg.HTTP.ReadHeaderTimeout

	e.Use(middleware.Recover())
	e.Use(auth.Middleware(verifier))

	handler := rest.NewHandler(engine, logger)
	v1 := e.Group("/v1")
	v1.GET("/search", handler.Search)
	v1.GET("/suggest", handler.Suggest)
	v1.GET("/health", handler.Health)
	v1.GET("/status", handler.Status)

	return &Server{
		config: cfg,
		echo:   e,
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.config.HTTP.Addr)
	return s.echo.Start(s.config.HTTP.Addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

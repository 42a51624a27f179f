// Package api exposes reports, backtests, games and dataset uploads over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/edgeboard/internal/backtest"
	"github.com/yourusername/edgeboard/internal/config"
	"github.com/yourusername/edgeboard/internal/datasource"
	"github.com/yourusername/edgeboard/internal/ingestion"
	"github.com/yourusername/edgeboard/internal/metrics"
	"github.com/yourusername/edgeboard/internal/report"
)

// ReportService serves the dashboard reads
type ReportService interface {
	Generate(ctx context.Context, mode report.Mode, filters report.Filters) (*report.Result, error)
	Overview(ctx context.Context) (*report.Overview, error)
	Games(ctx context.Context, query report.GamesQuery) ([]report.GameRow, error)
	Leagues(ctx context.Context) ([]string, error)
	InvalidateLeagues()
}

// BacktestRunner runs selection backtests
type BacktestRunner interface {
	Run(ctx context.Context, req backtest.Request) (*backtest.Result, error)
}

// DatasetImporter imports uploaded dataset files
type DatasetImporter interface {
	ImportFiles(ctx context.Context, source string, files *datasource.Files) (ingestion.Summary, error)
}

// DatabasePinger defines the interface for checking database connectivity.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP server
type Options struct {
	ServiceName     string
	Version         string
	Port            int
	AllowedOrigins  []string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
	MetricsPath     string
}

// OptionsFromConfig builds server options from the application config
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		ServiceName:     cfg.App.Name,
		Port:            cfg.Server.Port,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		ReadTimeout:     config.Timeout(cfg.Server.ReadTimeoutSeconds, 15*time.Second),
		WriteTimeout:    config.Timeout(cfg.Server.WriteTimeoutSeconds, 60*time.Second),
		RequestTimeout:  config.Timeout(cfg.Server.RequestTimeoutSeconds, 30*time.Second),
		ShutdownTimeout: config.Timeout(cfg.Server.ShutdownTimeoutSeconds, 10*time.Second),
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
	}
	if cfg.Metrics.Enabled {
		opts.MetricsPath = cfg.Metrics.Path
		if opts.MetricsPath == "" {
			opts.MetricsPath = "/metrics"
		}
	}
	return opts
}

// Dependencies are the services behind the routes. Events and DB are optional.
type Dependencies struct {
	Reports  ReportService
	Backtest BacktestRunner
	Importer DatasetImporter
	Events   http.Handler
	DB       DatabasePinger
}

// Server is the HTTP API server
type Server struct {
	opts   Options
	deps   Dependencies
	router chi.Router
	server *http.Server
	logger *logrus.Entry
	health *healthState
}

// NewServer creates a new API server and mounts every route
func NewServer(opts Options, deps Dependencies, logger *logrus.Logger) (*Server, error) {
	if deps.Reports == nil || deps.Backtest == nil || deps.Importer == nil {
		return nil, fmt.Errorf("reports, backtest and importer are required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "edgeboard"
	}

	s := &Server{
		opts:   opts,
		deps:   deps,
		logger: logger.WithField("component", "api"),
		health: &healthState{service: opts.ServiceName, version: opts.Version, db: deps.DB},
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(s.opts.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.health.handleHealth)
	r.Get("/live", s.health.handleLive)
	r.Get("/ready", s.health.handleReady)
	if s.opts.MetricsPath != "" {
		r.Handle(s.opts.MetricsPath, metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(instrument)
			r.Use(middleware.Timeout(s.opts.RequestTimeout))

			r.Get("/reports", s.handleReports)
			r.Get("/overview", s.handleOverview)
			r.Get("/games", s.handleGames)
			r.Get("/leagues", s.handleLeagues)
			r.Post("/backtest", s.handleBacktest)
			r.Post("/upload", s.handleUpload)
		})

		if s.deps.Events != nil {
			r.Handle("/events", s.deps.Events)
		}
	})

	return r
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetReady marks the server as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.health.setReady(ready)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.opts.Port),
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("port", s.opts.Port).Info("API server starting")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()
	s.SetReady(true)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.SetReady(false)
	s.logger.Info("API server shutting down")

	shutdownTimeout := s.opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

// Package httpapi exposes the operational HTTP surface: health, run
// triggering, and pipeline stats.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"horse.fit/feeder/internal/db"
	"horse.fit/feeder/internal/feeder"
	"horse.fit/feeder/internal/globaltime"
)

// Runner executes one full ingest cycle. The serve command wires in the
// pipeline; tests wire in fakes.
type Runner interface {
	Run(ctx context.Context) (*feeder.RunReport, error)
}

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	pool   *db.Pool
	runner Runner
	logger zerolog.Logger
	opts   Options

	mu         sync.Mutex
	running    bool
	lastReport *feeder.RunReport
}

func NewServer(pool *db.Pool, runner Runner, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8092
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		pool:   pool,
		runner: runner,
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildEcho()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("feeder api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("feeder api server stopped")
	return nil
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/stats", s.handleStats)
	api.POST("/runs", s.handleTriggerRun)
	api.GET("/runs/last", s.handleLastRun)

	return e
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.pool.Ping(c.Request().Context()); err != nil {
		s.logger.Error().Err(err).Msg("health check ping failed")
		return internalError(c, "Database unreachable")
	}
	return success(c, map[string]any{
		"service": "feeder",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.queryStats(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

// handleTriggerRun starts an ingest cycle. Only one run may be in flight;
// concurrent triggers get 409.
func (s *Server) handleTriggerRun(c echo.Context) error {
	if s.runner == nil {
		return fail(c, http.StatusServiceUnavailable, "Run trigger not configured", nil)
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fail(c, http.StatusConflict, "A run is already in progress", nil)
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	report, err := s.runner.Run(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("triggered run failed")
		return internalError(c, "Run failed")
	}

	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()

	return successWithStatus(c, http.StatusCreated, report)
}

func (s *Server) handleLastRun(c echo.Context) error {
	s.mu.Lock()
	report := s.lastReport
	s.mu.Unlock()

	if report == nil {
		return failNotFound(c, "No run has completed yet")
	}
	return success(c, report)
}

type statsResponse struct {
	Articles     int64 `json:"articles"`
	SeenGUIDs    int64 `json:"seen_guids"`
	SeenHashes   int64 `json:"seen_hashes"`
	Fingerprints int64 `json:"fingerprints"`
	Embeddings   int64 `json:"embeddings"`
}

func (s *Server) queryStats(ctx context.Context) (*statsResponse, error) {
	const q = `
SELECT
	(SELECT count(*) FROM feeder.articles),
	(SELECT count(*) FROM feeder.seen_guids),
	(SELECT count(*) FROM feeder.seen_hashes),
	(SELECT count(*) FROM feeder.seen_fingerprints),
	(SELECT count(*) FROM feeder.article_embeddings)
`
	var stats statsResponse
	err := s.pool.QueryRow(ctx, q).Scan(
		&stats.Articles,
		&stats.SeenGUIDs,
		&stats.SeenHashes,
		&stats.Fingerprints,
		&stats.Embeddings,
	)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return &stats, nil
}

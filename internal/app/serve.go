package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/feeder/internal/cli"
	"horse.fit/feeder/internal/config"
	"horse.fit/feeder/internal/db"
	"horse.fit/feeder/internal/feed"
	"horse.fit/feeder/internal/feeder"
	"horse.fit/feeder/internal/httpapi"
	"horse.fit/feeder/internal/logging"
	"horse.fit/feeder/internal/store"
)

// pipelineRunner satisfies httpapi.Runner: one trigger fetches every
// configured feed and pushes the result through the pipeline.
type pipelineRunner struct {
	cfg      *config.Config
	pipeline *feeder.Pipeline
	settings *store.SettingsStore
	fetcher  *feed.Fetcher
	logger   zerolog.Logger
}

func (r *pipelineRunner) Run(ctx context.Context) (*feeder.RunReport, error) {
	feedURLs := resolveFeedURLs(ctx, r.cfg, r.settings, r.logger)
	if len(feedURLs) == 0 {
		return nil, fmt.Errorf("no feed URLs configured")
	}
	fetched := r.fetcher.FetchAll(ctx, feedURLs)
	return r.pipeline.Run(ctx, fetched)
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "", "Host interface to bind (defaults to FEEDER_HTTP_HOST)")
	port := fs.Int("port", 0, "HTTP port (defaults to FEEDER_HTTP_PORT)")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	fetchTimeout := fs.Duration("fetch-timeout", 30*time.Second, "Per-feed fetch timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	pool, err := db.NewPool(dbCtx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("serve failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	pipeline, err := buildPipeline(cfg, pool, logger)
	if err != nil {
		logger.Error().Err(err).Msg("pipeline assembly failed")
		fmt.Fprintf(os.Stderr, "Pipeline assembly failed: %v\n", err)
		return 1
	}

	runner := &pipelineRunner{
		cfg:      cfg,
		pipeline: pipeline,
		settings: store.NewSettingsStore(pool),
		fetcher:  feed.NewFetcher(*fetchTimeout, logger),
		logger:   logger,
	}

	bindHost := cfg.HTTPHost
	if *host != "" {
		bindHost = *host
	}
	bindPort := cfg.HTTPPort
	if *port > 0 {
		bindPort = *port
	}
	if bindPort <= 0 || bindPort > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	srv := httpapi.NewServer(pool, runner, logger, httpapi.Options{
		Host:            bindHost,
		Port:            bindPort,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("host", bindHost).Int("port", bindPort).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}

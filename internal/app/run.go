package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/feeder/internal/cli"
	"horse.fit/feeder/internal/config"
	"horse.fit/feeder/internal/db"
	"horse.fit/feeder/internal/feed"
	"horse.fit/feeder/internal/logging"
	"horse.fit/feeder/internal/store"
)

func runOnce(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Overall run timeout")
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

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("run failed to connect to database")
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

	feedURLs := resolveFeedURLs(ctx, cfg, store.NewSettingsStore(pool), logger)
	if len(feedURLs) == 0 {
		fmt.Fprintln(os.Stderr, "No feed URLs configured: set FEEDER_FEED_URLS or add rows to feeder.sources")
		return 1
	}

	fetcher := feed.NewFetcher(*fetchTimeout, logger)
	fetched := fetcher.FetchAll(ctx, feedURLs)

	report, err := pipeline.Run(ctx, fetched)
	if err != nil {
		logger.Error().Err(err).Msg("pipeline run failed")
		fmt.Fprintf(os.Stderr, "Run failed: %v\n", err)
		return 1
	}

	fmt.Printf(
		"run %s fetched=%d after_recency=%d after_trust=%d after_cluster=%d deferred=%d after_exact=%d survivors=%d dropped=%d\n",
		report.RunID,
		report.Fetched,
		report.AfterRecency,
		report.AfterTrust,
		report.AfterCluster,
		report.Deferred,
		report.AfterExact,
		len(report.Survivors),
		len(report.Dropped),
	)
	return 0
}

// resolveFeedURLs prefers the environment list and falls back to active
// rows in feeder.sources.
func resolveFeedURLs(ctx context.Context, cfg *config.Config, settings *store.SettingsStore, logger zerolog.Logger) []string {
	if urls := cfg.FeedURLList(); len(urls) > 0 {
		return urls
	}
	urls, err := settings.ListFeedSources(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("could not list feed sources")
		return nil
	}
	return urls
}

package app

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/feeder/internal/config"
	"horse.fit/feeder/internal/db"
	"horse.fit/feeder/internal/feeder"
	"horse.fit/feeder/internal/services/embedding"
	"horse.fit/feeder/internal/services/entities"
	"horse.fit/feeder/internal/services/llm"
	"horse.fit/feeder/internal/store"
)

// buildPipeline assembles the deduplication pipeline from configuration.
// The arbiter mode picks between the detector funnel and the LLM judge.
func buildPipeline(cfg *config.Config, pool *db.Pool, logger zerolog.Logger) (*feeder.Pipeline, error) {
	guids := store.NewGUIDStore(pool)
	hashes := store.NewHashStore(pool)
	fingerprints := store.NewFingerprintStore(pool)
	vectors := store.NewVectorStore(pool, cfg.EmbeddingDimensions)
	articles := store.NewArticleStore(pool)
	settings := store.NewSettingsStore(pool)

	registry := feeder.NewTrustRegistry(settings, logger)
	exact := feeder.NewExactStage(guids, hashes, logger)

	arbiter, err := buildArbiter(cfg, articles, fingerprints, vectors, logger)
	if err != nil {
		return nil, err
	}

	return feeder.NewPipeline(feeder.PipelineDeps{
		Registry:     registry,
		Exact:        exact,
		Arbiter:      arbiter,
		Settings:     settings,
		GUIDs:        guids,
		Hashes:       hashes,
		Fingerprints: fingerprints,
		Vectors:      vectors,
		Articles:     articles,
		Defaults:     defaultSettings(cfg),
		Logger:       logger,
	}), nil
}

func buildArbiter(
	cfg *config.Config,
	articles *store.ArticleStore,
	fingerprints *store.FingerprintStore,
	vectors *store.VectorStore,
	logger zerolog.Logger,
) (feeder.DuplicateArbiter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.ArbiterMode)) {
	case "llm":
		client := llm.NewClient(llm.Options{
			Endpoint:       cfg.LLMEndpoint,
			Model:          cfg.LLMModel,
			APIKey:         cfg.LLMAPIKey,
			RequestTimeout: cfg.LLMTimeout,
		})
		return feeder.NewSemanticArbiter(client, articles, cfg.FuzzyDBLimit, logger), nil
	case "funnel", "":
		embedder := embedding.NewClient(embedding.Options{
			Endpoint:       cfg.EmbeddingEndpoint,
			ModelName:      cfg.EmbeddingModel,
			Dimensions:     cfg.EmbeddingDimensions,
			RequestTimeout: cfg.EmbeddingTimeout,
		})
		extractor := entities.NewClient(entities.Options{
			Endpoint:       cfg.EntityEndpoint,
			RequestTimeout: cfg.EntityTimeout,
		})
		return feeder.NewDetectorFunnel(
			articles,
			fingerprints,
			vectors,
			extractor,
			embedder,
			feeder.FunnelConfig{
				FuzzyThreshold:    cfg.FuzzyThreshold,
				FuzzyDBLimit:      cfg.FuzzyDBLimit,
				SemanticThreshold: cfg.SemanticThreshold,
				SemanticTopK:      cfg.SemanticTopK,
			},
			logger,
		), nil
	default:
		return nil, fmt.Errorf("unknown arbiter mode %q", cfg.ArbiterMode)
	}
}

func defaultSettings(cfg *config.Config) feeder.Settings {
	return feeder.Settings{
		BatchSize:         cfg.BatchSize,
		MaxAgeHours:       cfg.MaxAgeHours,
		ClusterThreshold:  cfg.ClusterThreshold,
		FuzzyThreshold:    cfg.FuzzyThreshold,
		FuzzyDBLimit:      cfg.FuzzyDBLimit,
		SemanticThreshold: cfg.SemanticThreshold,
		SemanticTopK:      cfg.SemanticTopK,
	}
}

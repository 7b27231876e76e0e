package feeder

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"horse.fit/feeder/internal/globaltime"
)

// PipelineDeps wires the pipeline's stages, stores and capabilities.
type PipelineDeps struct {
	Registry     *TrustRegistry
	Exact        *ExactStage
	Arbiter      DuplicateArbiter
	Settings     SettingsStore
	GUIDs        GUIDStore
	Hashes       HashStore
	Fingerprints FingerprintStore
	Vectors      VectorIndex
	Articles     ArticleStore
	Defaults     Settings
	Logger       zerolog.Logger
}

// Pipeline runs the full deduplication funnel over one bounded batch and
// performs the deferred commit. Nothing is written to any persisted store
// until every stage has finished for the whole batch.
type Pipeline struct {
	deps PipelineDeps
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{deps: deps}
}

// Run processes one batch of fetched articles. Single-article and
// single-stage failures are isolated and reported; the run always produces a
// complete survivor list and drop report.
func (p *Pipeline) Run(ctx context.Context, fetched []*Article) (*RunReport, error) {
	if p == nil || p.deps.Exact == nil || p.deps.Arbiter == nil {
		return nil, fmt.Errorf("pipeline is not initialized")
	}

	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: globaltime.UTC(),
		Fetched:   len(fetched),
	}
	logger := p.deps.Logger.With().Str("run_id", report.RunID).Logger()

	settings := p.loadSettings(ctx, logger)
	p.deps.Registry.Reset()

	// Recency filter.
	afterRecency := make([]*Article, 0, len(fetched))
	for _, article := range fetched {
		if WithinMaxAge(article.PublishedAt, settings.MaxAgeHours) {
			afterRecency = append(afterRecency, article)
			continue
		}
		report.Dropped = append(report.Dropped, DropRecord{
			Article: article,
			Stage:   StageRecency,
			Reason:  fmt.Sprintf("older than %dh (published %s)", settings.MaxAgeHours, article.PublishedAt.UTC().Format("2006-01-02T15:04:05Z")),
		})
	}
	report.AfterRecency = len(afterRecency)

	// Trust filter.
	afterTrust := make([]*Article, 0, len(afterRecency))
	for _, article := range afterRecency {
		if p.deps.Registry.IsAllowed(ctx, article.SourceDomain) {
			afterTrust = append(afterTrust, article)
			continue
		}
		report.Dropped = append(report.Dropped, DropRecord{
			Article: article,
			Stage:   StageTrust,
			Reason:  fmt.Sprintf("domain %q not whitelisted", article.SourceDomain),
		})
	}
	report.AfterTrust = len(afterTrust)

	// Event clustering over the whole candidate pool, before the batch cap.
	clustered, clusterDrops := ClusterEvents(ctx, afterTrust, p.deps.Registry, settings.ClusterThreshold)
	report.Dropped = append(report.Dropped, clusterDrops...)
	report.AfterCluster = len(clustered)

	// Batch cap: articles beyond the cap are deferred to a future run, not
	// dropped, so they carry no drop record.
	batch := clustered
	if len(batch) > settings.BatchSize {
		report.Deferred = len(batch) - settings.BatchSize
		batch = batch[:settings.BatchSize]
	}

	// Exact-duplicate stage. A GUID hit short-circuits: no hash is computed
	// or stored for identifier duplicates.
	afterExact := make([]*Article, 0, len(batch))
	for _, article := range batch {
		if dup, reason := p.deps.Exact.CheckGUID(ctx, article); dup {
			report.Dropped = append(report.Dropped, DropRecord{Article: article, Stage: StageExactGUID, Reason: reason})
			continue
		}
		if dup, reason := p.deps.Exact.CheckHash(ctx, article); dup {
			report.Dropped = append(report.Dropped, DropRecord{Article: article, Stage: StageExactHash, Reason: reason})
			continue
		}
		afterExact = append(afterExact, article)
	}
	report.AfterExact = len(afterExact)

	// Near-/semantic-duplicate stage via the configured arbiter. An arbiter
	// failure keeps the whole remaining batch.
	decision, err := p.deps.Arbiter.Evaluate(ctx, afterExact)
	if err != nil {
		logger.Warn().Err(err).Msg("duplicate arbiter failed; keeping remaining batch")
		decision = ArbiterDecision{Kept: afterExact}
	}
	report.Dropped = append(report.Dropped, decision.Dropped...)
	report.Survivors = decision.Kept

	p.commit(ctx, logger, report.Survivors)

	report.FinishedAt = globaltime.UTC()
	logger.Info().
		Int("fetched", report.Fetched).
		Int("after_recency", report.AfterRecency).
		Int("after_trust", report.AfterTrust).
		Int("after_cluster", report.AfterCluster).
		Int("deferred", report.Deferred).
		Int("after_exact", report.AfterExact).
		Int("survivors", len(report.Survivors)).
		Int("dropped", len(report.Dropped)).
		Msg("pipeline run finished")

	return report, nil
}

func (p *Pipeline) loadSettings(ctx context.Context, logger zerolog.Logger) Settings {
	if p.deps.Settings == nil {
		return p.deps.Defaults
	}
	settings, err := p.deps.Settings.Load(ctx, p.deps.Defaults)
	if err != nil {
		logger.Warn().Err(err).Msg("could not load settings overrides; using defaults")
		return p.deps.Defaults
	}
	return settings
}

// commit performs the deferred persistence step for every survivor: GUID,
// hash, fingerprint, embedding and the article record itself, each write
// attempted independently. The article upsert is keyed by GUID so repeated
// commits stay idempotent.
func (p *Pipeline) commit(ctx context.Context, logger zerolog.Logger, survivors []*Article) {
	for _, article := range survivors {
		if err := p.deps.GUIDs.Insert(ctx, article.GUID); err != nil {
			logger.Error().Err(err).Str("guid", article.GUID).Msg("commit: guid insert failed")
		}
		if article.Hash != "" {
			if err := p.deps.Hashes.Insert(ctx, article.Hash); err != nil {
				logger.Error().Err(err).Str("guid", article.GUID).Msg("commit: hash insert failed")
			}
		}
		if article.Fingerprint != "" {
			if err := p.deps.Fingerprints.Insert(ctx, article.Fingerprint, article.Title); err != nil {
				logger.Error().Err(err).Str("guid", article.GUID).Msg("commit: fingerprint insert failed")
			}
		}
		if article.Embedding != nil && p.deps.Vectors != nil {
			if err := p.deps.Vectors.Upsert(ctx, article.GUID, article.Embedding, article.Title); err != nil {
				logger.Error().Err(err).Str("guid", article.GUID).Msg("commit: vector upsert failed")
			}
		}
		if err := p.deps.Articles.Upsert(ctx, article); err != nil {
			logger.Error().Err(err).Str("guid", article.GUID).Msg("commit: article upsert failed")
			continue
		}
		logger.Info().Str("guid", article.GUID).Str("title", truncate(article.Title, 80)).Msg("article committed")
	}
}

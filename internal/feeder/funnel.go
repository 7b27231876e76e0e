package feeder

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// FunnelConfig carries the thresholds for the three-detector funnel.
type FunnelConfig struct {
	FuzzyThreshold    int
	FuzzyDBLimit      int
	SemanticThreshold float64
	SemanticTopK      int
}

// DetectorFunnel is the default DuplicateArbiter: fuzzy title overlap, then
// entity fingerprint equality, then embedding cosine similarity. Each
// detector checks the current batch first and the persisted corpus second,
// and the first match drops the article. All checks are read-only; survivors
// carry their computed fingerprint and embedding forward for the commit
// coordinator to persist.
type DetectorFunnel struct {
	titles       RecentTitleStore
	fingerprints FingerprintStore
	vectors      VectorIndex
	entities     EntityExtractor
	embedder     EmbeddingClient
	cfg          FunnelConfig
	logger       zerolog.Logger
}

var _ DuplicateArbiter = (*DetectorFunnel)(nil)

func NewDetectorFunnel(
	titles RecentTitleStore,
	fingerprints FingerprintStore,
	vectors VectorIndex,
	entities EntityExtractor,
	embedder EmbeddingClient,
	cfg FunnelConfig,
	logger zerolog.Logger,
) *DetectorFunnel {
	return &DetectorFunnel{
		titles:       titles,
		fingerprints: fingerprints,
		vectors:      vectors,
		entities:     entities,
		embedder:     embedder,
		cfg:          cfg,
		logger:       logger,
	}
}

// Evaluate runs the funnel over the batch sequentially so that every article
// observes a consistent, monotonically growing view of what the batch has
// already accepted.
func (f *DetectorFunnel) Evaluate(ctx context.Context, batch []*Article) (ArbiterDecision, error) {
	var decision ArbiterDecision
	working := newWorkingSets(len(batch))

	recentTitles := f.loadRecentTitles(ctx)

	for _, article := range batch {
		if matched, ok := f.checkFuzzyTitle(article, working.titles, recentTitles); ok {
			decision.Dropped = append(decision.Dropped, DropRecord{
				Article: article,
				Stage:   StageFuzzyTitle,
				Reason:  fmt.Sprintf("fuzzy title duplicate of %q", truncate(matched, 70)),
			})
			continue
		}

		if matched, ok := f.checkFingerprint(ctx, article, working.fingerprints); ok {
			decision.Dropped = append(decision.Dropped, DropRecord{
				Article: article,
				Stage:   StageFingerprint,
				Reason:  matched,
			})
			continue
		}

		if reason, ok := f.checkSemantic(ctx, article, working.embeddings); ok {
			decision.Dropped = append(decision.Dropped, DropRecord{
				Article: article,
				Stage:   StageSemantic,
				Reason:  reason,
			})
			continue
		}

		working.accept(article)
		decision.Kept = append(decision.Kept, article)
	}

	return decision, nil
}

func (f *DetectorFunnel) loadRecentTitles(ctx context.Context) []string {
	if f.titles == nil {
		return nil
	}
	titles, err := f.titles.ListRecent(ctx, f.cfg.FuzzyDBLimit)
	if err != nil {
		f.logger.Warn().Err(err).Msg("recent title store unavailable; fuzzy detector limited to in-batch checks")
		return nil
	}
	return titles
}

// checkFuzzyTitle compares the article's suffix-stripped title against
// titles accepted this run (phase 1) and the persisted recent window
// (phase 2) using token-set similarity.
func (f *DetectorFunnel) checkFuzzyTitle(article *Article, batchTitles, recentTitles []string) (string, bool) {
	title := StripSourceSuffix(article.Title)

	for _, seen := range batchTitles {
		if TokenSetRatio(title, StripSourceSuffix(seen)) >= f.cfg.FuzzyThreshold {
			return seen, true
		}
	}
	for _, seen := range recentTitles {
		if TokenSetRatio(title, StripSourceSuffix(seen)) >= f.cfg.FuzzyThreshold {
			return seen, true
		}
	}
	return "", false
}

type titleEmbedding struct {
	title     string
	embedding []float64
}

type workingSets struct {
	titles       []string
	fingerprints map[string]struct{}
	embeddings   []titleEmbedding
}

func newWorkingSets(capacity int) *workingSets {
	return &workingSets{
		titles:       make([]string, 0, capacity),
		fingerprints: make(map[string]struct{}, capacity),
		embeddings:   make([]titleEmbedding, 0, capacity),
	}
}

func (w *workingSets) accept(article *Article) {
	w.titles = append(w.titles, article.Title)
	if article.Fingerprint != "" {
		w.fingerprints[article.Fingerprint] = struct{}{}
	}
	if article.Embedding != nil {
		w.embeddings = append(w.embeddings, titleEmbedding{
			title:     article.Title,
			embedding: article.Embedding,
		})
	}
}

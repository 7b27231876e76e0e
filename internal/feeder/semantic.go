package feeder

import (
	"context"
	"fmt"
	"math"
)

// checkSemantic embeds title+description and compares the vector against
// embeddings accepted this run (phase 1) and the nearest neighbors in the
// persisted index (phase 2). Survivors keep their embedding for the deferred
// commit; the index itself is never written here.
func (f *DetectorFunnel) checkSemantic(ctx context.Context, article *Article, batchEmbeddings []titleEmbedding) (string, bool) {
	if f.embedder == nil {
		return "", false
	}

	embedding, err := f.embedder.Embed(ctx, article.Title+" "+article.Description)
	if err != nil {
		f.logger.Warn().Err(err).Str("guid", article.GUID).Msg("embedding failed; semantic detector failing open")
		return "", false
	}

	for _, seen := range batchEmbeddings {
		score := CosineSimilarity(embedding, seen.embedding)
		if score >= f.cfg.SemanticThreshold {
			return fmt.Sprintf("semantic duplicate in batch of %q (score=%.2f)", truncate(seen.title, 60), score), true
		}
	}

	if f.vectors != nil {
		matches, err := f.vectors.Query(ctx, embedding, f.cfg.SemanticTopK)
		if err != nil {
			f.logger.Warn().Err(err).Str("guid", article.GUID).Msg("vector index unavailable; failing open")
		} else {
			for _, match := range matches {
				if match.Score >= f.cfg.SemanticThreshold {
					return fmt.Sprintf("semantic duplicate of %q (score=%.2f)", truncate(match.Title, 60), match.Score), true
				}
			}
		}
	}

	article.Embedding = embedding
	return "", false
}

// CosineSimilarity is the dot product of two vectors divided by the product
// of their magnitudes. Mismatched or zero-magnitude vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

package store

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"horse.fit/feeder/internal/db"
	"horse.fit/feeder/internal/feeder"
)

const defaultSearchEF = 64

// VectorStore is the pgvector-backed embedding index. Query orders by
// cosine distance; Upsert is only reached from the commit coordinator.
type VectorStore struct {
	pool       *db.Pool
	dimensions int
}

func NewVectorStore(pool *db.Pool, dimensions int) *VectorStore {
	return &VectorStore{
		pool:       pool,
		dimensions: dimensions,
	}
}

func (s *VectorStore) Query(ctx context.Context, embedding []float64, topK int) ([]feeder.VectorMatch, error) {
	if topK <= 0 {
		return nil, nil
	}

	literal, err := s.toVectorLiteral(embedding)
	if err != nil {
		return nil, err
	}

	if _, err := s.pool.Exec(ctx, fmt.Sprintf("SET hnsw.ef_search = %d", defaultSearchEF)); err != nil {
		return nil, fmt.Errorf("set hnsw.ef_search: %w", err)
	}

	const q = `
SELECT
	title,
	(1 - (embedding <=> $1::vector))::DOUBLE PRECISION AS cosine
FROM feeder.article_embeddings
ORDER BY embedding <=> $1::vector ASC
LIMIT $2
`
	rows, err := s.pool.Query(ctx, q, literal, topK)
	if err != nil {
		return nil, fmt.Errorf("query nearest embeddings: %w", err)
	}
	defer rows.Close()

	matches := make([]feeder.VectorMatch, 0, topK)
	for rows.Next() {
		var m feeder.VectorMatch
		if err := rows.Scan(&m.Title, &m.Score); err != nil {
			return nil, fmt.Errorf("scan embedding match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embedding matches: %w", err)
	}
	return matches, nil
}

func (s *VectorStore) Upsert(ctx context.Context, guid string, embedding []float64, title string) error {
	literal, err := s.toVectorLiteral(embedding)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO feeder.article_embeddings (guid, title, embedding, embedded_at)
VALUES ($1, $2, $3::vector, now())
ON CONFLICT (guid) DO UPDATE
SET
	title = EXCLUDED.title,
	embedding = EXCLUDED.embedding,
	embedded_at = now()
`
	if _, err := s.pool.Exec(ctx, q, guid, title, literal); err != nil {
		return fmt.Errorf("upsert embedding guid=%s: %w", guid, err)
	}
	return nil
}

func (s *VectorStore) toVectorLiteral(values []float64) (string, error) {
	if len(values) != s.dimensions {
		return "", fmt.Errorf("expected %d dimensions, got %d", s.dimensions, len(values))
	}

	var builder strings.Builder
	builder.Grow(len(values) * 8)
	builder.WriteByte('[')
	for i, value := range values {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return "", fmt.Errorf("vector has non-finite value at index %d", i)
		}
		if i > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(strconv.FormatFloat(value, 'f', -1, 64))
	}
	builder.WriteByte(']')
	return builder.String(), nil
}

package store

import (
	"context"
	"fmt"

	"horse.fit/feeder/internal/db"
	"horse.fit/feeder/internal/feeder"
)

// ArticleStore persists committed article records and serves the recent
// title window consulted by the fuzzy detector and the semantic arbiter.
type ArticleStore struct {
	pool *db.Pool
}

func NewArticleStore(pool *db.Pool) *ArticleStore {
	return &ArticleStore{pool: pool}
}

// Upsert writes the article with status "pending", keyed by GUID so that a
// repeated commit of the same identifier overwrites rather than duplicates.
func (s *ArticleStore) Upsert(ctx context.Context, article *feeder.Article) error {
	const q = `
INSERT INTO feeder.articles (
	guid,
	hash,
	fingerprint,
	title,
	description,
	url,
	source_domain,
	language,
	status,
	published_at,
	created_at,
	updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9, now(), now())
ON CONFLICT (guid) DO UPDATE
SET
	hash = EXCLUDED.hash,
	fingerprint = EXCLUDED.fingerprint,
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	url = EXCLUDED.url,
	source_domain = EXCLUDED.source_domain,
	language = EXCLUDED.language,
	published_at = EXCLUDED.published_at,
	updated_at = now()
`
	_, err := s.pool.Exec(
		ctx,
		q,
		article.GUID,
		article.Hash,
		article.Fingerprint,
		article.Title,
		article.Description,
		article.Link,
		article.SourceDomain,
		article.Language,
		article.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert article guid=%s: %w", article.GUID, err)
	}
	return nil
}

// ListRecent returns committed titles, most recent first.
func (s *ArticleStore) ListRecent(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	const q = `
SELECT title
FROM feeder.articles
ORDER BY created_at DESC
LIMIT $1
`
	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent titles: %w", err)
	}
	defer rows.Close()

	titles := make([]string, 0, limit)
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan recent title: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent titles: %w", err)
	}
	return titles, nil
}

package store

import (
	"context"
	"fmt"

	"horse.fit/feeder/internal/db"
)

type FingerprintStore struct {
	pool *db.Pool
}

func NewFingerprintStore(pool *db.Pool) *FingerprintStore {
	return &FingerprintStore{pool: pool}
}

func (s *FingerprintStore) Find(ctx context.Context, fingerprint string) (string, bool, error) {
	const q = `SELECT title FROM feeder.seen_fingerprints WHERE fingerprint = $1 LIMIT 1`

	var title string
	err := s.pool.QueryRow(ctx, q, fingerprint).Scan(&title)
	if err != nil {
		if db.IsNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find seen fingerprint: %w", err)
	}
	return title, true, nil
}

func (s *FingerprintStore) Insert(ctx context.Context, fingerprint, title string) error {
	const q = `
INSERT INTO feeder.seen_fingerprints (fingerprint, title, created_at)
VALUES ($1, $2, now())
ON CONFLICT (fingerprint) DO NOTHING
`
	if _, err := s.pool.Exec(ctx, q, fingerprint, title); err != nil {
		return fmt.Errorf("insert seen fingerprint: %w", err)
	}
	return nil
}

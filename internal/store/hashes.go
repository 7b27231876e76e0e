package store

import (
	"context"
	"fmt"

	"horse.fit/feeder/internal/db"
)

type HashStore struct {
	pool *db.Pool
}

func NewHashStore(pool *db.Pool) *HashStore {
	return &HashStore{pool: pool}
}

func (s *HashStore) Exists(ctx context.Context, hash string) (bool, error) {
	const q = `SELECT 1 FROM feeder.seen_hashes WHERE hash = $1 LIMIT 1`

	var one int
	err := s.pool.QueryRow(ctx, q, hash).Scan(&one)
	if err != nil {
		if db.IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check seen hash: %w", err)
	}
	return true, nil
}

func (s *HashStore) Insert(ctx context.Context, hash string) error {
	const q = `
INSERT INTO feeder.seen_hashes (hash, created_at)
VALUES ($1, now())
ON CONFLICT (hash) DO NOTHING
`
	if _, err := s.pool.Exec(ctx, q, hash); err != nil {
		return fmt.Errorf("insert seen hash: %w", err)
	}
	return nil
}

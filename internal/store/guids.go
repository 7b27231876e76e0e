// Package store implements the feeder persistence ports over Postgres.
package store

import (
	"context"
	"fmt"

	"horse.fit/feeder/internal/db"
)

type GUIDStore struct {
	pool *db.Pool
}

func NewGUIDStore(pool *db.Pool) *GUIDStore {
	return &GUIDStore{pool: pool}
}

func (s *GUIDStore) Exists(ctx context.Context, guid string) (bool, error) {
	const q = `SELECT 1 FROM feeder.seen_guids WHERE guid = $1 LIMIT 1`

	var one int
	err := s.pool.QueryRow(ctx, q, guid).Scan(&one)
	if err != nil {
		if db.IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check seen guid: %w", err)
	}
	return true, nil
}

func (s *GUIDStore) Insert(ctx context.Context, guid string) error {
	const q = `
INSERT INTO feeder.seen_guids (guid, created_at)
VALUES ($1, now())
ON CONFLICT (guid) DO NOTHING
`
	if _, err := s.pool.Exec(ctx, q, guid); err != nil {
		return fmt.Errorf("insert seen guid: %w", err)
	}
	return nil
}

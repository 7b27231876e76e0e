package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"horse.fit/feeder/internal/db"
	"horse.fit/feeder/internal/feeder"
)

// SettingsStore reads named numeric overrides from feeder.settings and the
// domain whitelist from feeder.whitelisted_domains.
type SettingsStore struct {
	pool *db.Pool
}

func NewSettingsStore(pool *db.Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

// Load applies persisted overrides on top of the configured defaults.
// Unknown keys and unparseable values are skipped.
func (s *SettingsStore) Load(ctx context.Context, defaults feeder.Settings) (feeder.Settings, error) {
	const q = `SELECT key, value FROM feeder.settings`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return defaults, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	settings := defaults
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return defaults, fmt.Errorf("scan setting: %w", err)
		}
		applySetting(&settings, key, value)
	}
	if err := rows.Err(); err != nil {
		return defaults, fmt.Errorf("iterate settings: %w", err)
	}
	return settings, nil
}

func applySetting(settings *feeder.Settings, key, value string) {
	value = strings.TrimSpace(value)
	switch strings.TrimSpace(key) {
	case "batch_size":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			settings.BatchSize = v
		}
	case "max_age_hours":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			settings.MaxAgeHours = v
		}
	case "cluster_threshold":
		if v, err := strconv.Atoi(value); err == nil && v >= 0 && v <= 100 {
			settings.ClusterThreshold = v
		}
	case "fuzzy_threshold":
		if v, err := strconv.Atoi(value); err == nil && v >= 0 && v <= 100 {
			settings.FuzzyThreshold = v
		}
	case "fuzzy_db_limit":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			settings.FuzzyDBLimit = v
		}
	case "semantic_threshold":
		if v, err := strconv.ParseFloat(value, 64); err == nil && v >= 0 && v <= 1 {
			settings.SemanticThreshold = v
		}
	case "semantic_top_k":
		if v, err := strconv.Atoi(value); err == nil && v > 0 {
			settings.SemanticTopK = v
		}
	}
}

// ListTrusted returns whitelisted domains in registration order, earliest
// first. The position in the slice is the trust rank.
func (s *SettingsStore) ListTrusted(ctx context.Context) ([]string, error) {
	const q = `
SELECT domain
FROM feeder.whitelisted_domains
ORDER BY created_at ASC, id ASC
`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list whitelisted domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return nil, fmt.Errorf("scan whitelisted domain: %w", err)
		}
		domains = append(domains, domain)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate whitelisted domains: %w", err)
	}
	return domains, nil
}

// ListFeedSources returns the active syndication feed URLs.
func (s *SettingsStore) ListFeedSources(ctx context.Context) ([]string, error) {
	const q = `
SELECT url
FROM feeder.sources
WHERE is_active
ORDER BY created_at ASC
`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list feed sources: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan feed source: %w", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed sources: %w", err)
	}
	return urls, nil
}

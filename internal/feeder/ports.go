package feeder

import (
	"context"
)

// GUIDStore is the persisted set of identifiers of committed articles.
type GUIDStore interface {
	Exists(ctx context.Context, guid string) (bool, error)
	Insert(ctx context.Context, guid string) error
}

// HashStore is the persisted set of content hashes of committed articles.
type HashStore interface {
	Exists(ctx context.Context, hash string) (bool, error)
	Insert(ctx context.Context, hash string) error
}

// FingerprintStore is the persisted set of entity fingerprints. Find returns
// the title of the committed article that produced a matching fingerprint.
type FingerprintStore interface {
	Find(ctx context.Context, fingerprint string) (title string, found bool, err error)
	Insert(ctx context.Context, fingerprint, title string) error
}

// RecentTitleStore lists committed article titles most-recent-first, capped.
type RecentTitleStore interface {
	ListRecent(ctx context.Context, limit int) ([]string, error)
}

// VectorMatch is one nearest neighbor returned by the vector index.
type VectorMatch struct {
	Score float64
	Title string
}

// VectorIndex is the persisted embedding index. Upsert is only ever called
// by the commit coordinator, never mid-funnel.
type VectorIndex interface {
	Query(ctx context.Context, embedding []float64, topK int) ([]VectorMatch, error)
	Upsert(ctx context.Context, guid string, embedding []float64, title string) error
}

// ArticleStore persists full article records, keyed by GUID (upsert).
type ArticleStore interface {
	Upsert(ctx context.Context, article *Article) error
}

// TrustedDomainStore lists whitelisted domains in registration order
// (earliest first = most trusted).
type TrustedDomainStore interface {
	ListTrusted(ctx context.Context) ([]string, error)
}

// SettingsStore applies persisted overrides on top of the given defaults.
type SettingsStore interface {
	Load(ctx context.Context, defaults Settings) (Settings, error)
}

// EntityExtractor returns the named entities found in text, already filtered
// to the relevant labels, lowercased and deduplicated.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) ([]string, error)
}

// EmbeddingClient converts text into a fixed-length vector.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ArbiterDecision is the outcome of a duplicate arbiter over one batch.
type ArbiterDecision struct {
	Kept    []*Article
	Dropped []DropRecord
}

// DuplicateArbiter decides, for a batch that already passed the exact
// duplicate checks, which articles are genuinely new. Implementations must
// not write to any persisted store.
type DuplicateArbiter interface {
	Evaluate(ctx context.Context, batch []*Article) (ArbiterDecision, error)
}

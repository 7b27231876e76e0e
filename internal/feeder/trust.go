package feeder

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// UnknownTrustRank is returned for domains that are not registered. It ranks
// below every registered domain.
const UnknownTrustRank = 99999

// TrustRegistry caches the whitelisted domains for the duration of one
// pipeline run. Registration order defines the trust rank: the earlier a
// domain was added, the lower (better) its rank. An empty registry disables
// domain filtering so a missing whitelist degrades to "accept everything".
type TrustRegistry struct {
	store  TrustedDomainStore
	logger zerolog.Logger

	mu     sync.Mutex
	ranks  map[string]int
	loaded bool
}

func NewTrustRegistry(store TrustedDomainStore, logger zerolog.Logger) *TrustRegistry {
	return &TrustRegistry{
		store:  store,
		logger: logger,
	}
}

// Reset discards the cached whitelist so the next lookup loads it fresh.
// Call at the start of every pipeline run.
func (r *TrustRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ranks = nil
	r.loaded = false
}

// IsAllowed reports whether articles from the domain may enter the pipeline.
func (r *TrustRegistry) IsAllowed(ctx context.Context, domain string) bool {
	ranks := r.load(ctx)
	if len(ranks) == 0 {
		return true
	}
	_, ok := ranks[normalizeDomain(domain)]
	return ok
}

// RankOf returns the trust rank of a domain, UnknownTrustRank when the
// domain is not registered.
func (r *TrustRegistry) RankOf(ctx context.Context, domain string) int {
	ranks := r.load(ctx)
	if rank, ok := ranks[normalizeDomain(domain)]; ok {
		return rank
	}
	return UnknownTrustRank
}

func (r *TrustRegistry) load(ctx context.Context) map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return r.ranks
	}

	r.ranks = map[string]int{}
	r.loaded = true

	if r.store == nil {
		return r.ranks
	}

	domains, err := r.store.ListTrusted(ctx)
	if err != nil {
		// A missing whitelist is a documented fallback, not an error: the
		// registry stays empty and every domain passes.
		r.logger.Warn().Err(err).Msg("could not load domain whitelist; domain filter disabled for this run")
		return r.ranks
	}

	for i, domain := range domains {
		key := normalizeDomain(domain)
		if key == "" {
			continue
		}
		if _, exists := r.ranks[key]; exists {
			continue
		}
		r.ranks[key] = i
	}
	return r.ranks
}

func normalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	return strings.TrimPrefix(d, "www.")
}

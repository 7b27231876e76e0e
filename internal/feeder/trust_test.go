package feeder

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

type fakeDomainStore struct {
	domains []string
	err     error
	calls   int
}

func (s *fakeDomainStore) ListTrusted(ctx context.Context) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.domains, nil
}

func TestTrustRegistryRanksFollowRegistrationOrder(t *testing.T) {
	t.Parallel()

	store := &fakeDomainStore{domains: []string{"dawn.com", "tribune.com.pk", "geo.tv"}}
	registry := NewTrustRegistry(store, zerolog.Nop())
	ctx := context.Background()

	if got := registry.RankOf(ctx, "dawn.com"); got != 0 {
		t.Fatalf("rank of first registered domain = %d, want 0", got)
	}
	if got := registry.RankOf(ctx, "geo.tv"); got != 2 {
		t.Fatalf("rank of third registered domain = %d, want 2", got)
	}
	if got := registry.RankOf(ctx, "unknown.example"); got != UnknownTrustRank {
		t.Fatalf("rank of unregistered domain = %d, want %d", got, UnknownTrustRank)
	}
	if !registry.IsAllowed(ctx, "tribune.com.pk") {
		t.Fatalf("registered domain should be allowed")
	}
	if registry.IsAllowed(ctx, "unknown.example") {
		t.Fatalf("unregistered domain should be rejected when a whitelist exists")
	}
}

func TestTrustRegistryNormalizesDomains(t *testing.T) {
	t.Parallel()

	store := &fakeDomainStore{domains: []string{"Dawn.com"}}
	registry := NewTrustRegistry(store, zerolog.Nop())
	ctx := context.Background()

	if !registry.IsAllowed(ctx, "www.dawn.com") {
		t.Fatalf("www prefix should be ignored")
	}
	if !registry.IsAllowed(ctx, "DAWN.COM") {
		t.Fatalf("domain comparison should be case-insensitive")
	}
}

func TestTrustRegistryEmptyWhitelistAllowsEverything(t *testing.T) {
	t.Parallel()

	registry := NewTrustRegistry(&fakeDomainStore{}, zerolog.Nop())
	if !registry.IsAllowed(context.Background(), "anything.example") {
		t.Fatalf("empty whitelist should disable domain filtering")
	}
}

func TestTrustRegistryFailsOpenOnStoreError(t *testing.T) {
	t.Parallel()

	store := &fakeDomainStore{err: fmt.Errorf("connection refused")}
	registry := NewTrustRegistry(store, zerolog.Nop())
	if !registry.IsAllowed(context.Background(), "anything.example") {
		t.Fatalf("store outage should fail open")
	}
}

func TestTrustRegistryCachesUntilReset(t *testing.T) {
	t.Parallel()

	store := &fakeDomainStore{domains: []string{"dawn.com"}}
	registry := NewTrustRegistry(store, zerolog.Nop())
	ctx := context.Background()

	registry.IsAllowed(ctx, "dawn.com")
	registry.RankOf(ctx, "dawn.com")
	if store.calls != 1 {
		t.Fatalf("expected a single store load, got %d", store.calls)
	}

	registry.Reset()
	registry.IsAllowed(ctx, "dawn.com")
	if store.calls != 2 {
		t.Fatalf("expected a reload after Reset, got %d calls", store.calls)
	}
}

package feeder

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestClusterEventsKeepsHighestTrustRepresentative(t *testing.T) {
	t.Parallel()

	store := &fakeDomainStore{domains: []string{"dawn.com", "tribune.com.pk"}}
	registry := NewTrustRegistry(store, zerolog.Nop())

	// The less trusted outlet appears first in feed order; the cluster
	// winner must still be the higher-trust one.
	articles := []*Article{
		{GUID: "b", Title: "Floods displace thousands in Sindh province", SourceDomain: "tribune.com.pk"},
		{GUID: "a", Title: "Thousands displaced by floods in Sindh province", SourceDomain: "dawn.com"},
	}

	kept, dropped := ClusterEvents(context.Background(), articles, registry, 70)
	if len(kept) != 1 {
		t.Fatalf("expected 1 kept article, got %d", len(kept))
	}
	if kept[0].GUID != "a" {
		t.Fatalf("expected the dawn.com article to win the cluster, got %s", kept[0].GUID)
	}
	if len(dropped) != 1 || dropped[0].Stage != StageCluster {
		t.Fatalf("expected 1 cluster drop, got %+v", dropped)
	}
}

func TestClusterEventsUnrelatedArticlesAllSurvive(t *testing.T) {
	t.Parallel()

	registry := NewTrustRegistry(&fakeDomainStore{}, zerolog.Nop())
	articles := []*Article{
		{GUID: "a", Title: "Central bank cuts interest rate by 50 basis points"},
		{GUID: "b", Title: "National cricket team announces squad for world cup"},
		{GUID: "c", Title: "Heavy monsoon rains expected over the weekend"},
	}

	kept, dropped := ClusterEvents(context.Background(), articles, registry, 70)
	if len(kept) != 3 {
		t.Fatalf("expected all 3 articles kept, got %d", len(kept))
	}
	if len(dropped) != 0 {
		t.Fatalf("expected no drops, got %+v", dropped)
	}
}

func TestClusterEventsTieBreaksByFeedOrder(t *testing.T) {
	t.Parallel()

	// No whitelist: every domain has the same unknown rank, so the first
	// article in feed order represents the cluster.
	registry := NewTrustRegistry(&fakeDomainStore{}, zerolog.Nop())
	articles := []*Article{
		{GUID: "first", Title: "Cabinet approves annual development budget", SourceDomain: "one.example"},
		{GUID: "second", Title: "Annual development budget approved by cabinet", SourceDomain: "two.example"},
	}

	kept, dropped := ClusterEvents(context.Background(), articles, registry, 70)
	if len(kept) != 1 || kept[0].GUID != "first" {
		t.Fatalf("expected the earlier article to represent the cluster, kept %+v", kept)
	}
	if len(dropped) != 1 || dropped[0].Article.GUID != "second" {
		t.Fatalf("expected the later article absorbed, got %+v", dropped)
	}
}

func TestClusterEventsEmptyInput(t *testing.T) {
	t.Parallel()

	registry := NewTrustRegistry(&fakeDomainStore{}, zerolog.Nop())
	kept, dropped := ClusterEvents(context.Background(), nil, registry, 70)
	if kept != nil || dropped != nil {
		t.Fatalf("expected nil results for empty input, got %v / %v", kept, dropped)
	}
}

package feeder

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

type fakeTitleStore struct {
	titles []string
	err    error
}

func (s *fakeTitleStore) ListRecent(ctx context.Context, limit int) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.titles) {
		return s.titles[:limit], nil
	}
	return s.titles, nil
}

type fakeFingerprintStore struct {
	byFingerprint map[string]string
	err           error
	inserted      map[string]string
}

func (s *fakeFingerprintStore) Find(ctx context.Context, fingerprint string) (string, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	title, ok := s.byFingerprint[fingerprint]
	return title, ok, nil
}

func (s *fakeFingerprintStore) Insert(ctx context.Context, fingerprint, title string) error {
	if s.inserted == nil {
		s.inserted = map[string]string{}
	}
	s.inserted[fingerprint] = title
	return nil
}

type fakeVectorIndex struct {
	matches []VectorMatch
	err     error
	queries int
	upserts int
}

func (s *fakeVectorIndex) Query(ctx context.Context, embedding []float64, topK int) ([]VectorMatch, error) {
	s.queries++
	if s.err != nil {
		return nil, s.err
	}
	return s.matches, nil
}

func (s *fakeVectorIndex) Upsert(ctx context.Context, guid string, embedding []float64, title string) error {
	s.upserts++
	return nil
}

type extractorFunc func(ctx context.Context, text string) ([]string, error)

func (f extractorFunc) Extract(ctx context.Context, text string) ([]string, error) {
	return f(ctx, text)
}

type embedderFunc func(ctx context.Context, text string) ([]float64, error)

func (f embedderFunc) Embed(ctx context.Context, text string) ([]float64, error) {
	return f(ctx, text)
}

func newTestFunnel(
	titles RecentTitleStore,
	fingerprints FingerprintStore,
	vectors VectorIndex,
	extract extractorFunc,
	embed embedderFunc,
) *DetectorFunnel {
	return NewDetectorFunnel(titles, fingerprints, vectors, extract, embed, FunnelConfig{
		FuzzyThreshold:    65,
		FuzzyDBLimit:      300,
		SemanticThreshold: 0.70,
		SemanticTopK:      5,
	}, zerolog.Nop())
}

func distinctEntities(ctx context.Context, text string) ([]string, error) {
	return []string{text}, nil
}

func orthogonalEmbeddings() embedderFunc {
	next := 0
	return func(ctx context.Context, text string) ([]float64, error) {
		vec := make([]float64, 8)
		vec[next%8] = 1
		next++
		return vec, nil
	}
}

func TestFunnelDropsFuzzyTitleDuplicateInBatch(t *testing.T) {
	t.Parallel()

	funnel := newTestFunnel(
		&fakeTitleStore{},
		&fakeFingerprintStore{},
		&fakeVectorIndex{},
		distinctEntities,
		orthogonalEmbeddings(),
	)

	batch := []*Article{
		{GUID: "a", Title: "Earthquake of magnitude 6.1 hits northern Afghanistan"},
		{GUID: "b", Title: "Magnitude 6.1 earthquake hits northern Afghanistan - Dawn"},
	}

	decision, err := funnel.Evaluate(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decision.Kept) != 1 || decision.Kept[0].GUID != "a" {
		t.Fatalf("expected only the first article kept, got %+v", decision.Kept)
	}
	if len(decision.Dropped) != 1 || decision.Dropped[0].Stage != StageFuzzyTitle {
		t.Fatalf("expected a fuzzy title drop, got %+v", decision.Dropped)
	}
}

func TestFunnelDropsFuzzyTitleDuplicateFromRecentCorpus(t *testing.T) {
	t.Parallel()

	funnel := newTestFunnel(
		&fakeTitleStore{titles: []string{"Magnitude 6.1 earthquake hits northern Afghanistan"}},
		&fakeFingerprintStore{},
		&fakeVectorIndex{},
		distinctEntities,
		orthogonalEmbeddings(),
	)

	batch := []*Article{
		{GUID: "a", Title: "Earthquake of magnitude 6.1 hits northern Afghanistan"},
	}

	decision, err := funnel.Evaluate(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decision.Kept) != 0 {
		t.Fatalf("expected the article dropped against the recent corpus, kept %+v", decision.Kept)
	}
	if len(decision.Dropped) != 1 || decision.Dropped[0].Stage != StageFuzzyTitle {
		t.Fatalf("expected a fuzzy title drop, got %+v", decision.Dropped)
	}
}

func TestFunnelDropsFingerprintDuplicateFromStore(t *testing.T) {
	t.Parallel()

	fp := Fingerprint([]string{"supreme court", "islamabad"})
	funnel := newTestFunnel(
		&fakeTitleStore{},
		&fakeFingerprintStore{byFingerprint: map[string]string{fp: "Earlier court story"}},
		&fakeVectorIndex{},
		func(ctx context.Context, text string) ([]string, error) {
			return []string{"supreme court", "islamabad"}, nil
		},
		orthogonalEmbeddings(),
	)

	batch := []*Article{
		{GUID: "a", Title: "Court resumes hearing on election case"},
	}

	decision, err := funnel.Evaluate(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decision.Dropped) != 1 || decision.Dropped[0].Stage != StageFingerprint {
		t.Fatalf("expected a fingerprint drop, got %+v", decision.Dropped)
	}
	if batch[0].Fingerprint != fp {
		t.Fatalf("fingerprint should be attached even when the article is dropped")
	}
}

func TestFunnelAbstainsOnEmptyEntitySet(t *testing.T) {
	t.Parallel()

	funnel := newTestFunnel(
		&fakeTitleStore{},
		&fakeFingerprintStore{},
		&fakeVectorIndex{},
		func(ctx context.Context, text string) ([]string, error) {
			return nil, nil
		},
		orthogonalEmbeddings(),
	)

	batch := []*Article{
		{GUID: "a", Title: "Central bank cuts interest rate by 50 basis points"},
		{GUID: "b", Title: "National cricket team announces squad for world cup"},
	}

	decision, err := funnel.Evaluate(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decision.Kept) != 2 {
		t.Fatalf("entity-free articles must not be treated as duplicates, kept %d", len(decision.Kept))
	}
	for _, a := range decision.Kept {
		if a.Fingerprint != "" {
			t.Fatalf("expected no fingerprint on entity-free article, got %q", a.Fingerprint)
		}
	}
}

func TestFunnelDropsSemanticDuplicateInBatch(t *testing.T) {
	t.Parallel()

	same := []float64{1, 0, 0, 0}
	funnel := newTestFunnel(
		&fakeTitleStore{},
		&fakeFingerprintStore{},
		&fakeVectorIndex{},
		distinctEntities,
		func(ctx context.Context, text string) ([]float64, error) {
			return same, nil
		},
	)

	batch := []*Article{
		{GUID: "a", Title: "Central bank cuts interest rate by 50 basis points"},
		{GUID: "b", Title: "Monetary policy committee lowers borrowing costs"},
	}

	decision, err := funnel.Evaluate(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decision.Kept) != 1 || decision.Kept[0].GUID != "a" {
		t.Fatalf("expected only the first article kept, got %+v", decision.Kept)
	}
	if len(decision.Dropped) != 1 || decision.Dropped[0].Stage != StageSemantic {
		t.Fatalf("expected a semantic drop, got %+v", decision.Dropped)
	}
	if decision.Kept[0].Embedding == nil {
		t.Fatalf("survivor should carry its embedding for the commit")
	}
}

func TestFunnelDropsSemanticDuplicateFromIndex(t *testing.T) {
	t.Parallel()

	index := &fakeVectorIndex{matches: []VectorMatch{{Title: "Stored story", Score: 0.91}}}
	funnel := newTestFunnel(
		&fakeTitleStore{},
		&fakeFingerprintStore{},
		index,
		distinctEntities,
		orthogonalEmbeddings(),
	)

	batch := []*Article{
		{GUID: "a", Title: "Heavy monsoon rains expected over the weekend"},
	}

	decision, err := funnel.Evaluate(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decision.Dropped) != 1 || decision.Dropped[0].Stage != StageSemantic {
		t.Fatalf("expected a semantic drop against the index, got %+v", decision.Dropped)
	}
	if index.upserts != 0 {
		t.Fatalf("the funnel must never write to the vector index")
	}
}

func TestFunnelFailsOpenOnEmbedderError(t *testing.T) {
	t.Parallel()

	funnel := newTestFunnel(
		&fakeTitleStore{},
		&fakeFingerprintStore{},
		&fakeVectorIndex{},
		distinctEntities,
		func(ctx context.Context, text string) ([]float64, error) {
			return nil, fmt.Errorf("embedding service down")
		},
	)

	batch := []*Article{
		{GUID: "a", Title: "Heavy monsoon rains expected over the weekend"},
	}

	decision, err := funnel.Evaluate(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decision.Kept) != 1 {
		t.Fatalf("embedding outage should fail open, kept %d", len(decision.Kept))
	}
	if decision.Kept[0].Embedding != nil {
		t.Fatalf("no embedding should be attached when embedding failed")
	}
}

func TestFunnelFailsOpenOnRecentTitleStoreError(t *testing.T) {
	t.Parallel()

	funnel := newTestFunnel(
		&fakeTitleStore{err: fmt.Errorf("connection refused")},
		&fakeFingerprintStore{},
		&fakeVectorIndex{},
		distinctEntities,
		orthogonalEmbeddings(),
	)

	batch := []*Article{
		{GUID: "a", Title: "Heavy monsoon rains expected over the weekend"},
	}

	decision, err := funnel.Evaluate(context.Background(), batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(decision.Kept) != 1 {
		t.Fatalf("title store outage should fail open, kept %d", len(decision.Kept))
	}
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	if got := CosineSimilarity([]float64{1, 0}, []float64{1, 0}); got != 1 {
		t.Fatalf("identical vectors scored %f, want 1", got)
	}
	if got := CosineSimilarity([]float64{1, 0}, []float64{0, 1}); got != 0 {
		t.Fatalf("orthogonal vectors scored %f, want 0", got)
	}
	if got := CosineSimilarity([]float64{1, 0}, []float64{1, 0, 0}); got != 0 {
		t.Fatalf("mismatched dimensions scored %f, want 0", got)
	}
	if got := CosineSimilarity([]float64{0, 0}, []float64{1, 0}); got != 0 {
		t.Fatalf("zero vector scored %f, want 0", got)
	}
}

package feeder

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
)

type fakeGUIDStore struct {
	existing map[string]bool
	err      error
	inserted []string
	checks   int
}

func (s *fakeGUIDStore) Exists(ctx context.Context, guid string) (bool, error) {
	s.checks++
	if s.err != nil {
		return false, s.err
	}
	return s.existing[guid], nil
}

func (s *fakeGUIDStore) Insert(ctx context.Context, guid string) error {
	s.inserted = append(s.inserted, guid)
	return nil
}

type fakeHashStore struct {
	existing map[string]bool
	err      error
	inserted []string
	checks   int
}

func (s *fakeHashStore) Exists(ctx context.Context, hash string) (bool, error) {
	s.checks++
	if s.err != nil {
		return false, s.err
	}
	return s.existing[hash], nil
}

func (s *fakeHashStore) Insert(ctx context.Context, hash string) error {
	s.inserted = append(s.inserted, hash)
	return nil
}

func TestCheckGUIDDetectsSeenIdentifier(t *testing.T) {
	t.Parallel()

	stage := NewExactStage(
		&fakeGUIDStore{existing: map[string]bool{"guid-1": true}},
		&fakeHashStore{},
		zerolog.Nop(),
	)
	article := &Article{GUID: "guid-1", Title: "T"}

	dup, reason := stage.CheckGUID(context.Background(), article)
	if !dup {
		t.Fatalf("expected guid duplicate")
	}
	if reason == "" {
		t.Fatalf("expected a drop reason")
	}
	if article.Hash != "" {
		t.Fatalf("guid check must not compute a content hash")
	}
}

func TestCheckGUIDFailsOpenOnStoreError(t *testing.T) {
	t.Parallel()

	stage := NewExactStage(
		&fakeGUIDStore{err: fmt.Errorf("timeout")},
		&fakeHashStore{},
		zerolog.Nop(),
	)

	dup, _ := stage.CheckGUID(context.Background(), &Article{GUID: "g"})
	if dup {
		t.Fatalf("store outage should fail open")
	}
}

func TestCheckHashAttachesHashAndDetectsDuplicate(t *testing.T) {
	t.Parallel()

	hash := ContentHash("Title", "Desc", "https://x.example/a")
	stage := NewExactStage(
		&fakeGUIDStore{},
		&fakeHashStore{existing: map[string]bool{hash: true}},
		zerolog.Nop(),
	)
	article := &Article{GUID: "g", Title: "Title", Description: "Desc", Link: "https://x.example/a"}

	dup, _ := stage.CheckHash(context.Background(), article)
	if !dup {
		t.Fatalf("expected content hash duplicate")
	}
	if article.Hash != hash {
		t.Fatalf("expected hash attached to article, got %q", article.Hash)
	}
}

func TestContentHashIsCaseAndSpaceInsensitive(t *testing.T) {
	t.Parallel()

	a := ContentHash("  Breaking News ", "Something happened", "https://x.example/a")
	b := ContentHash("breaking news", "something happened", "https://x.example/a")
	if a != b {
		t.Fatalf("hash should ignore case and surrounding whitespace")
	}

	c := ContentHash("breaking news", "something happened", "https://x.example/b")
	if a == c {
		t.Fatalf("different links must produce different hashes")
	}
}

package feeder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ExactStage runs the two exact-duplicate checks against the persisted GUID
// and hash sets. Both checks are read-only; inserts happen only at commit.
// Store outages fail open: ingestion availability beats zero duplicate
// leakage here because the near-duplicate funnel still runs downstream.
type ExactStage struct {
	guids  GUIDStore
	hashes HashStore
	logger zerolog.Logger
}

func NewExactStage(guids GUIDStore, hashes HashStore, logger zerolog.Logger) *ExactStage {
	return &ExactStage{
		guids:  guids,
		hashes: hashes,
		logger: logger,
	}
}

// CheckGUID reports whether the article's identifier is already committed.
func (s *ExactStage) CheckGUID(ctx context.Context, article *Article) (bool, string) {
	exists, err := s.guids.Exists(ctx, article.GUID)
	if err != nil {
		s.logger.Warn().Err(err).Str("guid", article.GUID).Msg("guid store unavailable; failing open")
		return false, ""
	}
	if exists {
		return true, fmt.Sprintf("identifier already seen: %s", truncate(article.GUID, 40))
	}
	return false, ""
}

// CheckHash computes the article's content hash, attaches it for later
// commit, and reports whether the hash is already committed.
func (s *ExactStage) CheckHash(ctx context.Context, article *Article) (bool, string) {
	article.Hash = ContentHash(article.Title, article.Description, article.Link)

	exists, err := s.hashes.Exists(ctx, article.Hash)
	if err != nil {
		s.logger.Warn().Err(err).Str("guid", article.GUID).Msg("hash store unavailable; failing open")
		return false, ""
	}
	if exists {
		return true, "content hash already seen (exact content duplicate)"
	}
	return false, ""
}

// ContentHash is a deterministic digest over the lowercased title,
// description and link. Collision resistance is the only requirement.
func ContentHash(title, description, link string) string {
	raw := strings.ToLower(strings.TrimSpace(title)) +
		strings.ToLower(strings.TrimSpace(description)) +
		strings.ToLower(strings.TrimSpace(link))
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

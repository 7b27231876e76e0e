package feeder

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Fingerprint hashes the sorted set of entity strings. An empty entity set
// yields no fingerprint.
func Fingerprint(entities []string) string {
	if len(entities) == 0 {
		return ""
	}

	cleaned := make([]string, 0, len(entities))
	seen := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		key := strings.ToLower(strings.TrimSpace(e))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, key)
	}
	if len(cleaned) == 0 {
		return ""
	}

	sort.Strings(cleaned)
	sum := md5.Sum([]byte(strings.Join(cleaned, "|")))
	return hex.EncodeToString(sum[:])
}

// checkFingerprint extracts entities from title+description, attaches the
// resulting fingerprint to the article, and reports whether an equal
// fingerprint was accepted this run (phase 1) or committed earlier
// (phase 2). With no entities the detector abstains: absence of evidence is
// not evidence of uniqueness.
func (f *DetectorFunnel) checkFingerprint(ctx context.Context, article *Article, batchFingerprints map[string]struct{}) (string, bool) {
	if f.entities == nil {
		return "", false
	}

	entities, err := f.entities.Extract(ctx, article.Title+" "+article.Description)
	if err != nil {
		f.logger.Warn().Err(err).Str("guid", article.GUID).Msg("entity extraction failed; fingerprint detector failing open")
		return "", false
	}

	fingerprint := Fingerprint(entities)
	if fingerprint == "" {
		return "", false
	}
	article.Fingerprint = fingerprint

	if _, ok := batchFingerprints[fingerprint]; ok {
		return fmt.Sprintf("entity fingerprint duplicate in batch (fp=%s)", fingerprint[:12]), true
	}

	title, found, err := f.fingerprints.Find(ctx, fingerprint)
	if err != nil {
		f.logger.Warn().Err(err).Str("guid", article.GUID).Msg("fingerprint store unavailable; failing open")
		return "", false
	}
	if found {
		return fmt.Sprintf("entity fingerprint duplicate of %q", truncate(title, 60)), true
	}
	return "", false
}

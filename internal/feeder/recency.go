package feeder

import (
	"time"

	"horse.fit/feeder/internal/globaltime"
)

// WithinMaxAge reports whether an article is new enough to pass the recency
// filter. A missing timestamp always passes: losing an undated article
// silently is worse than letting it through.
func WithinMaxAge(publishedAt *time.Time, maxAgeHours int) bool {
	if publishedAt == nil || publishedAt.IsZero() {
		return true
	}

	threshold := globaltime.UTC().Add(-time.Duration(maxAgeHours) * time.Hour)
	return !publishedAt.UTC().Before(threshold)
}

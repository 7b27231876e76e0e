package store

import (
	"testing"

	"horse.fit/feeder/internal/feeder"
)

func defaults() feeder.Settings {
	return feeder.Settings{
		BatchSize:         30,
		MaxAgeHours:       24,
		ClusterThreshold:  70,
		FuzzyThreshold:    65,
		FuzzyDBLimit:      300,
		SemanticThreshold: 0.70,
		SemanticTopK:      5,
	}
}

func TestApplySettingOverridesKnownKeys(t *testing.T) {
	t.Parallel()

	settings := defaults()
	applySetting(&settings, "batch_size", "50")
	applySetting(&settings, "max_age_hours", "48")
	applySetting(&settings, "semantic_threshold", "0.85")

	if settings.BatchSize != 50 {
		t.Fatalf("batch size = %d, want 50", settings.BatchSize)
	}
	if settings.MaxAgeHours != 48 {
		t.Fatalf("max age = %d, want 48", settings.MaxAgeHours)
	}
	if settings.SemanticThreshold != 0.85 {
		t.Fatalf("semantic threshold = %f, want 0.85", settings.SemanticThreshold)
	}
}

func TestApplySettingIgnoresInvalidValues(t *testing.T) {
	t.Parallel()

	settings := defaults()
	applySetting(&settings, "batch_size", "not-a-number")
	applySetting(&settings, "batch_size", "-5")
	applySetting(&settings, "cluster_threshold", "150")
	applySetting(&settings, "semantic_threshold", "1.5")

	if settings != defaults() {
		t.Fatalf("invalid overrides must leave defaults untouched: %+v", settings)
	}
}

func TestApplySettingIgnoresUnknownKeys(t *testing.T) {
	t.Parallel()

	settings := defaults()
	applySetting(&settings, "unknown_knob", "42")
	if settings != defaults() {
		t.Fatalf("unknown keys must be ignored: %+v", settings)
	}
}

func TestApplySettingTrimsWhitespace(t *testing.T) {
	t.Parallel()

	settings := defaults()
	applySetting(&settings, "  fuzzy_threshold ", " 80 ")
	if settings.FuzzyThreshold != 80 {
		t.Fatalf("fuzzy threshold = %d, want 80", settings.FuzzyThreshold)
	}
}

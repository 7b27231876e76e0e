package feeder

import (
	"time"
)

// Article is the unit flowing through the pipeline. It is created at
// ingestion and owned by a single pipeline run until it is committed or
// dropped. The Hash, Fingerprint and Embedding fields are filled in by the
// stage that computes them and are never touched again.
type Article struct {
	GUID         string     `json:"guid"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Link         string     `json:"url"`
	SourceDomain string     `json:"source_domain,omitempty"`
	Language     string     `json:"language,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`

	Hash        string    `json:"hash,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Embedding   []float64 `json:"-"`
}

// Stage identifiers used in drop records.
const (
	StageRecency     = "recency"
	StageTrust       = "trust"
	StageCluster     = "cluster"
	StageExactGUID   = "exact_guid"
	StageExactHash   = "exact_hash"
	StageFuzzyTitle  = "fuzzy_title"
	StageFingerprint = "fingerprint"
	StageSemantic    = "semantic"
	StageArbiter     = "arbiter"
)

// DropRecord attributes one dropped article to the stage that rejected it.
// The full set for a run is its audit trail.
type DropRecord struct {
	Article *Article `json:"article"`
	Stage   string   `json:"stage"`
	Reason  string   `json:"reason"`
}

// Settings are the tunable pipeline knobs. Defaults come from configuration;
// rows in feeder.settings override them per run.
type Settings struct {
	BatchSize         int
	MaxAgeHours       int
	ClusterThreshold  int
	FuzzyThreshold    int
	FuzzyDBLimit      int
	SemanticThreshold float64
	SemanticTopK      int
}

// RunReport is the complete outcome of one pipeline run: every survivor,
// every drop with its reason, and per-stage counts.
type RunReport struct {
	RunID        string       `json:"run_id"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   time.Time    `json:"finished_at"`
	Fetched      int          `json:"fetched"`
	AfterRecency int          `json:"after_recency"`
	AfterTrust   int          `json:"after_trust"`
	AfterCluster int          `json:"after_cluster"`
	Deferred     int          `json:"deferred"`
	AfterExact   int          `json:"after_exact"`
	Survivors    []*Article   `json:"survivors"`
	Dropped      []DropRecord `json:"dropped"`
}

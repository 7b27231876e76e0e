package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"FEEDER_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"FEEDER_DB_MAX_CONNS" default:"8"`

	FeedURLs string `envconfig:"FEEDER_FEED_URLS" default:""`

	EmbeddingEndpoint   string        `envconfig:"FEEDER_EMBEDDING_ENDPOINT" default:"http://127.0.0.1:8844/embed"`
	EmbeddingModel      string        `envconfig:"FEEDER_EMBEDDING_MODEL" default:"multilingual-e5-large"`
	EmbeddingDimensions int           `envconfig:"FEEDER_EMBEDDING_DIMENSIONS" default:"1024"`
	EmbeddingTimeout    time.Duration `envconfig:"FEEDER_EMBEDDING_TIMEOUT" default:"45s"`

	EntityEndpoint string        `envconfig:"FEEDER_ENTITY_ENDPOINT" default:"http://127.0.0.1:8855/entities"`
	EntityTimeout  time.Duration `envconfig:"FEEDER_ENTITY_TIMEOUT" default:"20s"`

	ArbiterMode string        `envconfig:"FEEDER_ARBITER_MODE" default:"funnel"`
	LLMEndpoint string        `envconfig:"FEEDER_LLM_ENDPOINT" default:"https://api.openai.com/v1/chat/completions"`
	LLMModel    string        `envconfig:"FEEDER_LLM_MODEL" default:"gpt-4o-mini"`
	LLMAPIKey   string        `envconfig:"FEEDER_LLM_API_KEY" default:""`
	LLMTimeout  time.Duration `envconfig:"FEEDER_LLM_TIMEOUT" default:"90s"`

	BatchSize         int     `envconfig:"FEEDER_BATCH_SIZE" default:"30"`
	MaxAgeHours       int     `envconfig:"FEEDER_MAX_AGE_HOURS" default:"24"`
	ClusterThreshold  int     `envconfig:"FEEDER_CLUSTER_THRESHOLD" default:"70"`
	FuzzyThreshold    int     `envconfig:"FEEDER_FUZZY_THRESHOLD" default:"65"`
	FuzzyDBLimit      int     `envconfig:"FEEDER_FUZZY_DB_LIMIT" default:"300"`
	SemanticThreshold float64 `envconfig:"FEEDER_SEMANTIC_THRESHOLD" default:"0.70"`
	SemanticTopK      int     `envconfig:"FEEDER_SEMANTIC_TOP_K" default:"5"`

	HTTPHost string `envconfig:"FEEDER_HTTP_HOST" default:"0.0.0.0"`
	HTTPPort int    `envconfig:"FEEDER_HTTP_PORT" default:"8092"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("FEEDER_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("FEEDER_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("FEEDER_DB_MIN_CONNS (%d) cannot exceed FEEDER_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.EmbeddingDimensions < 1 {
		return fmt.Errorf("FEEDER_EMBEDDING_DIMENSIONS must be >= 1")
	}
	switch strings.ToLower(strings.TrimSpace(c.ArbiterMode)) {
	case "funnel", "llm":
	default:
		return fmt.Errorf("FEEDER_ARBITER_MODE must be 'funnel' or 'llm', got %q", c.ArbiterMode)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("FEEDER_BATCH_SIZE must be >= 1")
	}
	if c.MaxAgeHours < 1 {
		return fmt.Errorf("FEEDER_MAX_AGE_HOURS must be >= 1")
	}
	if c.ClusterThreshold < 0 || c.ClusterThreshold > 100 {
		return fmt.Errorf("FEEDER_CLUSTER_THRESHOLD must be in [0,100]")
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("FEEDER_FUZZY_THRESHOLD must be in [0,100]")
	}
	if c.SemanticThreshold < 0 || c.SemanticThreshold > 1 {
		return fmt.Errorf("FEEDER_SEMANTIC_THRESHOLD must be in [0,1]")
	}
	if c.SemanticTopK < 1 {
		return fmt.Errorf("FEEDER_SEMANTIC_TOP_K must be >= 1")
	}
	return nil
}

// FeedURLList splits FEEDER_FEED_URLS into unique trimmed URLs. These are a
// fallback for when the feeder_sources table holds no active rows.
func (c *Config) FeedURLList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.FeedURLs, ",")
	urls := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		u := strings.TrimSpace(part)
		if u == "" {
			continue
		}
		if _, exists := seen[u]; exists {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}

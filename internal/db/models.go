package db

import (
	"time"
)

// SeenGUID maps feeder.seen_guids — identifiers of fully committed articles.
type SeenGUID struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	GUID      string    `gorm:"column:guid;type:text;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (SeenGUID) TableName() string { return "feeder.seen_guids" }

// SeenHash maps feeder.seen_hashes — content hashes of committed articles.
type SeenHash struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Hash      string    `gorm:"column:hash;type:text;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (SeenHash) TableName() string { return "feeder.seen_hashes" }

// SeenFingerprint maps feeder.seen_fingerprints — entity fingerprints of
// committed articles together with the title they were derived from.
type SeenFingerprint struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Fingerprint string    `gorm:"column:fingerprint;type:text;not null;uniqueIndex"`
	Title       string    `gorm:"column:title;type:text;not null;default:''"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (SeenFingerprint) TableName() string { return "feeder.seen_fingerprints" }

// FeederArticle maps feeder.articles.
type FeederArticle struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	GUID         string     `gorm:"column:guid;type:text;not null;uniqueIndex"`
	Hash         string     `gorm:"column:hash;type:text;not null;default:''"`
	Fingerprint  string     `gorm:"column:fingerprint;type:text;not null;default:''"`
	Title        string     `gorm:"column:title;type:text;not null"`
	Description  string     `gorm:"column:description;type:text;not null;default:''"`
	URL          string     `gorm:"column:url;type:text;not null;default:''"`
	SourceDomain string     `gorm:"column:source_domain;type:text;not null;default:''"`
	Language     string     `gorm:"column:language;type:text;not null;default:''"`
	Status       string     `gorm:"column:status;type:text;not null;default:pending"`
	PublishedAt  *time.Time `gorm:"column:published_at;type:timestamptz"`
	CreatedAt    time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (FeederArticle) TableName() string { return "feeder.articles" }

// ArticleEmbedding maps feeder.article_embeddings — the pgvector index
// consulted by the semantic duplicate detector.
type ArticleEmbedding struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	GUID       string    `gorm:"column:guid;type:text;not null;uniqueIndex"`
	Title      string    `gorm:"column:title;type:text;not null;default:''"`
	Embedding  string    `gorm:"column:embedding;type:vector(1024);not null"`
	EmbeddedAt time.Time `gorm:"column:embedded_at;type:timestamptz;not null;default:now()"`
}

func (ArticleEmbedding) TableName() string { return "feeder.article_embeddings" }

// WhitelistedDomain maps feeder.whitelisted_domains. Registration order
// (created_at ascending) defines the trust rank.
type WhitelistedDomain struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Domain    string    `gorm:"column:domain;type:text;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (WhitelistedDomain) TableName() string { return "feeder.whitelisted_domains" }

// Setting maps feeder.settings — named numeric overrides for pipeline knobs.
type Setting struct {
	Key       string    `gorm:"column:key;type:text;primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Setting) TableName() string { return "feeder.settings" }

// FeedSource maps feeder.sources — syndication feeds to poll.
type FeedSource struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	URL       string    `gorm:"column:url;type:text;not null;uniqueIndex"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (FeedSource) TableName() string { return "feeder.sources" }

func autoMigrateModels() []any {
	return []any{
		&SeenGUID{},
		&SeenHash{},
		&SeenFingerprint{},
		&FeederArticle{},
		&ArticleEmbedding{},
		&WhitelistedDomain{},
		&Setting{},
		&FeedSource{},
	}
}

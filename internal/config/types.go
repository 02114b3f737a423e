// Package config provides shared configuration types for brandpulse.
// This package is decoupled from CLI concerns and can be used by the
// pipeline, the dashboard server, and other tools that need project
// configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/brandpulse-labs/brandpulse/pkg/adapter"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// DatabaseConfig holds sink database configuration.
type DatabaseConfig struct {
	Type string `koanf:"type"` // sqlite, duckdb, postgres

	// File-based databases (SQLite, DuckDB)
	Path string `koanf:"path"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`
}

// Validate checks if the database configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func (d *DatabaseConfig) Validate() error {
	if d.Type == "" {
		return fmt.Errorf("database type is required")
	}

	// Use adapter registry as single source of truth
	if !adapter.IsRegistered(strings.ToLower(d.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      d.Type,
			Available: adapter.ListAdapters(),
		}
	}

	return nil
}

// ToAdapterConfig converts the database configuration into the wire-level
// adapter configuration.
func (d *DatabaseConfig) ToAdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		Type:     d.Type,
		Path:     d.Path,
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		Username: d.User,
		Password: d.Password,
		Options:  d.Options,
	}
}

// RedditConfig holds Reddit extractor settings. Missing credentials put
// the extractor in demo mode (warn and skip) rather than failing the run.
type RedditConfig struct {
	ClientID        string   `koanf:"client_id"`
	ClientSecret    string   `koanf:"client_secret"`
	UserAgent       string   `koanf:"user_agent"`
	Subreddits      []string `koanf:"subreddits"`
	SearchTerms     []string `koanf:"search_terms"`
	MaxPosts        int      `koanf:"max_posts"`
	PostsPerSearch  int      `koanf:"posts_per_search"`
	CommentsPerPost int      `koanf:"comments_per_post"`
}

// YouTubeConfig holds YouTube extractor settings.
type YouTubeConfig struct {
	APIKey           string   `koanf:"api_key"`
	Brands           []string `koanf:"brands"`
	QueriesPerBrand  int      `koanf:"queries_per_brand"`
	VideosPerBrand   int      `koanf:"videos_per_brand"`
	CommentsPerVideo int      `koanf:"comments_per_video"`
	DailyQuota       int      `koanf:"daily_quota"`
}

// SourcesConfig groups the extractor settings per source.
type SourcesConfig struct {
	Reddit  *RedditConfig  `koanf:"reddit"`
	YouTube *YouTubeConfig `koanf:"youtube"`
}

// EnrichConfig holds sentiment enrichment settings. The confidence
// threshold is deliberately not configurable.
type EnrichConfig struct {
	InferenceURL  string        `koanf:"inference_url"`
	APIToken      string        `koanf:"api_token"`
	Model         string        `koanf:"model"`
	BatchSize     int           `koanf:"batch_size"`
	MaxTextLength int           `koanf:"max_text_length"`
	Timeout       time.Duration `koanf:"timeout"`
	Topics        bool          `koanf:"topics"`
}

// RawStoreConfig holds raw-record store settings. Mongo is the primary
// store; Dir is the local JSON fallback used when Mongo is unreachable.
type RawStoreConfig struct {
	MongoURI      string        `koanf:"mongo_uri"`
	MongoDatabase string        `koanf:"mongo_database"`
	Timeout       time.Duration `koanf:"timeout"`
	Dir           string        `koanf:"dir"`
}

// ServerConfig holds the dashboard read-API server settings.
type ServerConfig struct {
	Port       int    `koanf:"port"`
	SessionKey string `koanf:"session_key"`
	Watch      bool   `koanf:"watch"`
}

// KPIConfig holds synthetic KPI generator settings.
type KPIConfig struct {
	Seed int64 `koanf:"seed"`
}

// ProjectConfig holds the minimal project configuration needed by tools
// that only care about where the data lives. This is a subset of the full
// CLI Config.
type ProjectConfig struct {
	DataDir  string          `koanf:"data_dir"`
	Database *DatabaseConfig `koanf:"database"`
}

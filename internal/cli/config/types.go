// Package config provides configuration management for the brandpulse CLI.
//
// This package extends the shared configuration types from internal/config
// with CLI-specific fields and functionality. The shared types
// (DatabaseConfig, SourcesConfig, ...) are defined in internal/config and
// re-exported here via type aliases for convenience.
package config

import (
	sharedcfg "github.com/brandpulse-labs/brandpulse/internal/config"
)

// DatabaseConfig is an alias for the shared database configuration.
type DatabaseConfig = sharedcfg.DatabaseConfig

// SourcesConfig is an alias for the shared extractor configuration.
type SourcesConfig = sharedcfg.SourcesConfig

// RedditConfig is an alias for the shared Reddit extractor configuration.
type RedditConfig = sharedcfg.RedditConfig

// YouTubeConfig is an alias for the shared YouTube extractor configuration.
type YouTubeConfig = sharedcfg.YouTubeConfig

// EnrichConfig is an alias for the shared enrichment configuration.
type EnrichConfig = sharedcfg.EnrichConfig

// RawStoreConfig is an alias for the shared raw-store configuration.
type RawStoreConfig = sharedcfg.RawStoreConfig

// ServerConfig is an alias for the shared server configuration.
type ServerConfig = sharedcfg.ServerConfig

// KPIConfig is an alias for the shared KPI generator configuration.
type KPIConfig = sharedcfg.KPIConfig

// Config holds all CLI configuration options.
type Config struct {
	DataDir      string               `koanf:"data_dir"`
	RawDir       string               `koanf:"raw_dir"`
	ExportDir    string               `koanf:"export_dir"`
	StatePath    string               `koanf:"state_path"`
	Environment  string               `koanf:"environment"`
	LogLevel     string               `koanf:"log_level"`
	Verbose      bool                 `koanf:"verbose"`
	OutputFormat string               `koanf:"output"`
	Database     *DatabaseConfig      `koanf:"database"`
	Sources      *SourcesConfig       `koanf:"sources"`
	Enrich       *EnrichConfig        `koanf:"enrich"`
	RawStore     *RawStoreConfig      `koanf:"raw_store"`
	Server       *ServerConfig        `koanf:"server"`
	KPI          *KPIConfig           `koanf:"kpi"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory all relative paths resolve against.
	// Set by the loader, never read from the config file.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	DataDir  string          `koanf:"data_dir"`
	Database *DatabaseConfig `koanf:"database"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultDataDir   = sharedcfg.DefaultDataDir
	DefaultRawDir    = sharedcfg.DefaultRawDir
	DefaultExportDir = sharedcfg.DefaultExportDir
	DefaultStateFile = ".brandpulse/state.db"
	DefaultEnv       = "dev"
	DefaultLogLevel  = "info"
	DefaultOutput    = "auto" // Auto-detect: TTY=table, non-TTY=csv
)

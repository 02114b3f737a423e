// Package commands implements the brandpulse subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brandpulse-labs/brandpulse/internal/cli/config"
	sharedcfg "github.com/brandpulse-labs/brandpulse/internal/config"
	"github.com/brandpulse-labs/brandpulse/internal/enrich"
	"github.com/brandpulse-labs/brandpulse/internal/pipeline"
	"github.com/brandpulse-labs/brandpulse/internal/rawstore"
	"github.com/brandpulse-labs/brandpulse/internal/sink"
	"github.com/brandpulse-labs/brandpulse/internal/source"
	"github.com/brandpulse-labs/brandpulse/internal/state"
	"github.com/brandpulse-labs/brandpulse/pkg/adapter"

	// Register the analytics database adapters.
	_ "github.com/brandpulse-labs/brandpulse/pkg/adapters/duckdb"
	_ "github.com/brandpulse-labs/brandpulse/pkg/adapters/postgres"
	_ "github.com/brandpulse-labs/brandpulse/pkg/adapters/sqlite"
)

func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	cfg := &config.Config{
		DataDir:      getEnvOrDefault("BRANDPULSE_DATA_DIR", config.DefaultDataDir),
		RawDir:       getEnvOrDefault("BRANDPULSE_RAW_DIR", config.DefaultRawDir),
		ExportDir:    getEnvOrDefault("BRANDPULSE_EXPORT_DIR", config.DefaultExportDir),
		StatePath:    getEnvOrDefault("BRANDPULSE_STATE_PATH", config.DefaultStateFile),
		Environment:  getEnvOrDefault("BRANDPULSE_ENVIRONMENT", config.DefaultEnv),
		Verbose:      os.Getenv("BRANDPULSE_VERBOSE") == "true",
		OutputFormat: os.Getenv("BRANDPULSE_OUTPUT"),
		Database: &config.DatabaseConfig{
			Type: os.Getenv("BRANDPULSE_DATABASE_TYPE"),
			Path: os.Getenv("BRANDPULSE_DATABASE_PATH"),
		},
		Sources:  &config.SourcesConfig{},
		Enrich:   &config.EnrichConfig{},
		RawStore: &config.RawStoreConfig{},
		Server:   &config.ServerConfig{},
		KPI:      &config.KPIConfig{},
	}
	sharedcfg.ApplyDatabaseDefaults(cfg.Database)
	sharedcfg.ApplySourcesDefaults(cfg.Sources)
	sharedcfg.ApplyEnrichDefaults(cfg.Enrich)
	sharedcfg.ApplyRawStoreDefaults(cfg.RawStore)
	sharedcfg.ApplyServerDefaults(cfg.Server)
	if cfg.RawStore.Dir == sharedcfg.DefaultRawDir {
		cfg.RawStore.Dir = cfg.RawDir
	}
	return cfg
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getLogger(cmd *cobra.Command) *slog.Logger {
	return config.GetLogger(cmd.Context())
}

// openState opens the run-state database, creating it on first use.
func openState(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	st := state.NewSQLiteStore(logger)
	if err := st.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := st.Migrate(); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// openSink connects the analytics database and wraps it in a loader.
// File-backed databases get their parent directory created on demand.
func openSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (adapter.Adapter, *sink.Loader, error) {
	if err := cfg.Database.Validate(); err != nil {
		return nil, nil, err
	}

	acfg := cfg.Database.ToAdapterConfig()
	if acfg.Path != "" && acfg.Path != ":memory:" {
		if dir := filepath.Dir(acfg.Path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	a, err := adapter.NewAdapter(acfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := a.Connect(ctx, acfg); err != nil {
		return nil, nil, err
	}
	return a, sink.NewLoader(a, logger), nil
}

// openSinkForQuery refuses to create a missing file-backed database,
// so read commands fail with a hint instead of leaving empty files.
func openSinkForQuery(ctx context.Context, cfg *config.Config, logger *slog.Logger) (adapter.Adapter, error) {
	if t := cfg.Database.Type; t == "sqlite" || t == "duckdb" {
		if path := cfg.Database.Path; path != "" && path != ":memory:" {
			if _, err := os.Stat(path); err != nil {
				return nil, fmt.Errorf("analytics database not found at %s (run 'brandpulse run' or 'brandpulse kpi' first)", path)
			}
		}
	}

	a, _, err := openSink(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// buildExtractors returns one extractor per requested source.
func buildExtractors(cfg *config.Config, srcFilter string, logger *slog.Logger) ([]source.Extractor, error) {
	switch srcFilter {
	case "", "all":
		return []source.Extractor{
			source.NewRedditExtractor(cfg.Sources.Reddit, logger),
			source.NewYouTubeExtractor(cfg.Sources.YouTube, logger),
		}, nil
	case "reddit":
		return []source.Extractor{source.NewRedditExtractor(cfg.Sources.Reddit, logger)}, nil
	case "youtube":
		return []source.Extractor{source.NewYouTubeExtractor(cfg.Sources.YouTube, logger)}, nil
	default:
		return nil, fmt.Errorf("unknown source %q, expected reddit, youtube or all", srcFilter)
	}
}

type pipelineOptions struct {
	Source string
	Topics bool
}

// pipelineSet bundles a wired pipeline with the collaborators commands
// need to touch directly. Close releases every held connection.
type pipelineSet struct {
	Pipeline *pipeline.Pipeline
	Loader   *sink.Loader
	State    *state.SQLiteStore
	RawStore rawstore.Store

	adapter adapter.Adapter
	logger  *slog.Logger
}

func (s *pipelineSet) Close(ctx context.Context) {
	if err := s.RawStore.Close(ctx); err != nil {
		s.logger.Warn("failed to close raw store", "error", err)
	}
	if err := s.adapter.Close(); err != nil {
		s.logger.Warn("failed to close analytics database", "error", err)
	}
	if err := s.State.Close(); err != nil {
		s.logger.Warn("failed to close state database", "error", err)
	}
}

// buildPipeline wires every stage collaborator from the configuration.
func buildPipeline(ctx context.Context, cfg *config.Config, opts pipelineOptions, logger *slog.Logger) (*pipelineSet, error) {
	extractors, err := buildExtractors(cfg, opts.Source, logger)
	if err != nil {
		return nil, err
	}

	st, err := openState(cfg, logger)
	if err != nil {
		return nil, err
	}

	a, loader, err := openSink(ctx, cfg, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	classifier := enrich.NewInferenceClient(*cfg.Enrich, logger)
	annotator := enrich.NewAnnotator(classifier, *cfg.Enrich, logger)

	var topics enrich.TopicModeler
	if opts.Topics {
		topics = enrich.NewTermFrequencyModeler(logger)
	}

	raw := rawstore.Open(ctx, *cfg.RawStore, logger)

	p, err := pipeline.New(pipeline.Config{
		Extractors: extractors,
		RawStore:   raw,
		Annotator:  annotator,
		Topics:     topics,
		Loader:     loader,
		State:      st,
		Logger:     logger,
	})
	if err != nil {
		_ = raw.Close(ctx)
		_ = a.Close()
		_ = st.Close()
		return nil, err
	}

	return &pipelineSet{
		Pipeline: p,
		Loader:   loader,
		State:    st,
		RawStore: raw,
		adapter:  a,
		logger:   logger,
	}, nil
}

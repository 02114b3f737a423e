// Package pipeline orchestrates the end-to-end run: extraction into the
// raw store, transform and enrichment in memory, and a replace-all load
// into the sink. Stages execute strictly in order with a single writer;
// the first unrecoverable error aborts the run. Every run is recorded in
// the state store with per-stage record counts.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brandpulse-labs/brandpulse/internal/enrich"
	"github.com/brandpulse-labs/brandpulse/internal/rawstore"
	"github.com/brandpulse-labs/brandpulse/internal/sink"
	"github.com/brandpulse-labs/brandpulse/internal/source"
	"github.com/brandpulse-labs/brandpulse/internal/state"
	"github.com/brandpulse-labs/brandpulse/internal/transform"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// Annotator is the sentiment stage.
type Annotator interface {
	Annotate(ctx context.Context, records []core.NormalizedRecord) ([]core.EnrichedRecord, error)
}

// SinkLoader is the slice of the sink loader the pipeline drives.
type SinkLoader interface {
	EnsureSchema(ctx context.Context) error
	LoadProcessed(ctx context.Context, records []core.EnrichedRecord) error
}

var (
	_ Annotator  = (*enrich.Annotator)(nil)
	_ SinkLoader = (*sink.Loader)(nil)
)

// Config holds the pipeline's collaborators.
type Config struct {
	// Extractors run during Extract and Run. Empty means nothing to
	// extract; Process still works off the raw store.
	Extractors []source.Extractor

	RawStore  rawstore.Store
	Annotator Annotator

	// Topics enables topic labeling when non-nil.
	Topics enrich.TopicModeler

	Loader SinkLoader
	State  state.Store

	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Pipeline wires the stages together.
type Pipeline struct {
	extractors []source.Extractor
	raw        rawstore.Store
	normalizer *transform.Normalizer
	annotator  Annotator
	topics     enrich.TopicModeler
	loader     SinkLoader
	state      state.Store
	logger     *slog.Logger
}

// New creates a pipeline from connected collaborators.
func New(cfg Config) (*Pipeline, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.RawStore == nil {
		return nil, fmt.Errorf("pipeline requires a raw store")
	}
	if cfg.Annotator == nil {
		return nil, fmt.Errorf("pipeline requires an annotator")
	}
	if cfg.Loader == nil {
		return nil, fmt.Errorf("pipeline requires a sink loader")
	}
	if cfg.State == nil {
		return nil, fmt.Errorf("pipeline requires a state store")
	}

	return &Pipeline{
		extractors: cfg.Extractors,
		raw:        cfg.RawStore,
		normalizer: transform.NewNormalizer(logger),
		annotator:  cfg.Annotator,
		topics:     cfg.Topics,
		loader:     cfg.Loader,
		state:      cfg.State,
		logger:     logger,
	}, nil
}

// Run executes the full pipeline: extract into the raw store, then
// process everything the raw store holds into the sink.
func (p *Pipeline) Run(ctx context.Context) (*core.Run, error) {
	p.logger.Info("starting run", "sources", p.sourceLabel())
	return p.lifecycle(ctx, "pipeline", p.sourceLabel(), func(ctx context.Context, counts *core.RunCounts) error {
		if err := p.extract(ctx, counts); err != nil {
			return err
		}
		return p.process(ctx, counts)
	})
}

// Extract runs the extractors and persists their output in the raw
// store, without processing.
func (p *Pipeline) Extract(ctx context.Context) (*core.Run, error) {
	p.logger.Info("starting extraction", "sources", p.sourceLabel())
	return p.lifecycle(ctx, "extract", p.sourceLabel(), p.extract)
}

// Process reads the newest extraction of every source from the raw
// store and carries it through transform, enrichment, and the sink load.
func (p *Pipeline) Process(ctx context.Context) (*core.Run, error) {
	p.logger.Info("starting processing")
	return p.lifecycle(ctx, "process", "", p.process)
}

// lifecycle records the run in the state store around fn, completing it
// as failed with the error text or as completed with the final counts.
func (p *Pipeline) lifecycle(ctx context.Context, kind, sourceLabel string, fn func(context.Context, *core.RunCounts) error) (*core.Run, error) {
	run, err := p.state.CreateRun(kind, sourceLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	var counts core.RunCounts
	runErr := fn(ctx, &counts)

	if runErr != nil {
		p.logger.Info("run failed", "run_id", run.ID, "error", runErr.Error())
		_ = p.state.CompleteRun(run.ID, core.RunStatusFailed, counts, runErr.Error())
	} else {
		p.logger.Info("run completed", "run_id", run.ID,
			"extracted", counts.Extracted, "processed", counts.Processed,
			"deduped", counts.Deduped, "enriched", counts.Enriched, "loaded", counts.Loaded)
		_ = p.state.CompleteRun(run.ID, core.RunStatusCompleted, counts, "")
	}

	run, _ = p.state.GetRun(run.ID)
	return run, runErr
}

// extract runs every extractor in order and saves non-empty results.
// Demo-mode extractors return nothing and leave the raw store untouched.
func (p *Pipeline) extract(ctx context.Context, counts *core.RunCounts) error {
	for _, ex := range p.extractors {
		start := time.Now()
		records, err := ex.Extract(ctx)
		if err != nil {
			return fmt.Errorf("extract %s: %w", ex.Source(), err)
		}

		counts.Extracted += int64(len(records))
		p.logger.Info("extraction finished", "source", ex.Source(),
			"records", len(records), "elapsed_ms", time.Since(start).Milliseconds())

		if len(records) == 0 {
			continue
		}
		if err := p.raw.Save(ctx, ex.Source(), records); err != nil {
			return fmt.Errorf("save %s extraction: %w", ex.Source(), err)
		}
	}
	return nil
}

// process is the in-memory half: load raw, reshape, normalize, dedupe,
// enrich, load into the sink. The sink load verifies row counts itself.
func (p *Pipeline) process(ctx context.Context, counts *core.RunCounts) error {
	raw, err := p.raw.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load raw records: %w", err)
	}
	if len(raw) == 0 {
		p.logger.Warn("no raw records to process")
		return nil
	}
	if counts.Extracted == 0 {
		// Process-only runs count what they read instead.
		counts.Extracted = int64(len(raw))
	}

	start := time.Now()
	raw = p.reshape(raw)
	normalized := p.normalizer.Normalize(raw)
	counts.Processed = int64(len(normalized))

	deduped := p.normalizer.Dedupe(normalized)
	counts.Deduped = int64(len(deduped))
	p.logger.Info("transform complete", "records", len(deduped),
		"duplicates", len(normalized)-len(deduped),
		"elapsed_ms", time.Since(start).Milliseconds())

	enriched, err := p.annotator.Annotate(ctx, deduped)
	if err != nil {
		return fmt.Errorf("sentiment enrichment: %w", err)
	}
	if p.topics != nil {
		if err := enrich.AssignTopics(p.topics, enriched, p.logger); err != nil {
			return fmt.Errorf("topic assignment: %w", err)
		}
	}
	counts.Enriched = int64(len(enriched))

	dist := enrich.Distribution(enriched)
	p.logger.Info("sentiment distribution",
		"positive", dist[core.SentimentPositive],
		"negative", dist[core.SentimentNegative],
		"neutral", dist[core.SentimentNeutral])

	if err := p.loader.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := p.loader.LoadProcessed(ctx, enriched); err != nil {
		return fmt.Errorf("load processed records: %w", err)
	}
	counts.Loaded = int64(len(enriched))
	return nil
}

// reshape flattens YouTube comments into the common record shape and
// passes Reddit records through untouched, preserving input order within
// each source.
func (p *Pipeline) reshape(raw []core.RawRecord) []core.RawRecord {
	var reddit, youtube []core.RawRecord
	for _, r := range raw {
		if r.Source == core.SourceYouTube {
			youtube = append(youtube, r)
		} else {
			reddit = append(reddit, r)
		}
	}
	if len(youtube) == 0 {
		return raw
	}
	return append(reddit, p.normalizer.ReshapeYouTube(youtube)...)
}

func (p *Pipeline) sourceLabel() string {
	switch len(p.extractors) {
	case 0:
		return ""
	case 1:
		return string(p.extractors[0].Source())
	default:
		return "all"
	}
}

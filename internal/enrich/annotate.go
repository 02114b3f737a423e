package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brandpulse-labs/brandpulse/internal/config"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// neutralConfidence is the gate below which a prediction is reported as
// NEUTRAL regardless of its label. Strictly less-than, and deliberately a
// constant rather than configuration.
const neutralConfidence = 0.6

// Annotator runs the sentiment stage: it batches record texts through a
// Classifier and applies the confidence gate. Any batch failure aborts the
// whole stage; there is no partial result.
type Annotator struct {
	classifier    Classifier
	batchSize     int
	maxTextLength int
	logger        *slog.Logger
}

// NewAnnotator creates an Annotator. Batch size and text length fall back
// to the package defaults when the config leaves them unset.
func NewAnnotator(classifier Classifier, cfg config.EnrichConfig, logger *slog.Logger) *Annotator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}
	maxTextLength := cfg.MaxTextLength
	if maxTextLength <= 0 {
		maxTextLength = config.DefaultMaxTextLength
	}
	return &Annotator{
		classifier:    classifier,
		batchSize:     batchSize,
		maxTextLength: maxTextLength,
		logger:        logger,
	}
}

// Annotate classifies every record's text and returns the enriched set in
// input order. Texts are truncated to the configured length before being
// sent; the stored record text is never mutated.
func (a *Annotator) Annotate(ctx context.Context, records []core.NormalizedRecord) ([]core.EnrichedRecord, error) {
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = truncateRunes(r.FullText, a.maxTextLength)
	}

	preds := make([]core.Prediction, 0, len(texts))
	for start := 0; start < len(texts); start += a.batchSize {
		end := min(start+a.batchSize, len(texts))
		batch := texts[start:end]

		out, err := a.classifier.Classify(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("classify batch at offset %d: %w", start, err)
		}
		if len(out) != len(batch) {
			return nil, &ResultCountError{Expected: len(batch), Got: len(out)}
		}
		preds = append(preds, out...)
		a.logger.Debug("classified batch", "offset", start, "size", len(batch))
	}

	enriched := make([]core.EnrichedRecord, len(records))
	for i, r := range records {
		p := preds[i]
		label := p.Label
		if p.Score < neutralConfidence {
			label = core.SentimentNeutral
		}
		enriched[i] = core.EnrichedRecord{
			NormalizedRecord: r,
			SentimentLabel:   label,
			SentimentScore:   p.Score,
		}
	}

	a.logger.Info("sentiment annotation complete", "records", len(enriched), "batches", batchCount(len(texts), a.batchSize))
	return enriched, nil
}

// Distribution counts records per sentiment label, for run summaries.
func Distribution(records []core.EnrichedRecord) map[core.SentimentLabel]int {
	dist := make(map[core.SentimentLabel]int)
	for _, r := range records {
		dist[r.SentimentLabel]++
	}
	return dist
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func batchCount(items, batchSize int) int {
	if items == 0 {
		return 0
	}
	return (items + batchSize - 1) / batchSize
}

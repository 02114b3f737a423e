// Package rawstore persists raw extraction output before processing.
// MongoDB is the primary backend; a local JSON directory is the fallback
// when Mongo is unreachable, so extraction degrades instead of aborting.
package rawstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/brandpulse-labs/brandpulse/internal/config"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// Metadata describes one extraction: where the records came from, when
// they were collected, and how many there are.
type Metadata struct {
	Source         core.Source `json:"source" bson:"source"`
	ExtractionDate time.Time   `json:"extraction_date" bson:"extraction_date"`
	TotalRecords   int         `json:"total_records" bson:"total_records"`
}

// Document is the raw extraction format: a metadata header plus the
// record array. JSON fallback files hold exactly one document.
type Document struct {
	Metadata Metadata         `json:"metadata" bson:"metadata"`
	Records  []core.RawRecord `json:"records" bson:"records"`
}

// Store persists and retrieves raw extraction records. Each source keeps
// only its newest extraction; saving replaces what came before.
type Store interface {
	// Save stores one extraction for a source, replacing the previous one.
	Save(ctx context.Context, source core.Source, records []core.RawRecord) error

	// LoadAll returns the newest extraction of every source, ordered by
	// source name.
	LoadAll(ctx context.Context) ([]core.RawRecord, error)

	// Kind names the active backend ("mongodb" or "file").
	Kind() string

	// Close releases the backend connection.
	Close(ctx context.Context) error
}

// Open returns the configured raw store: MongoDB when reachable, the
// local JSON directory otherwise.
func Open(ctx context.Context, cfg config.RawStoreConfig, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultMongoTimeout
	}

	ms := NewMongoStore(cfg, logger)
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := ms.Connect(pingCtx); err != nil {
		logger.Warn("mongodb unreachable, using local json store",
			"uri", cfg.MongoURI, "dir", cfg.Dir, "error", err)
		return NewFileStore(cfg.Dir, logger)
	}

	logger.Debug("raw store connected", "kind", ms.Kind(), "database", cfg.MongoDatabase)
	return ms
}

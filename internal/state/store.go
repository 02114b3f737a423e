// Package state persists pipeline run history in a local SQLite
// database, separate from the data sink. Every run records its status,
// per-stage record counts, and any terminal error.
package state

import (
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// Store is the run-history contract.
type Store interface {
	// Open opens the backing database, creating it if needed.
	// Use ":memory:" for an in-memory store.
	Open(path string) error

	// Close closes the backing database.
	Close() error

	// Migrate brings the schema up to date.
	Migrate() error

	// CreateRun records the start of a run. Kind names the operation
	// ("pipeline", "extract", "kpi"); source is the data source when
	// the run targets one specifically, empty otherwise.
	CreateRun(kind, source string) (*core.Run, error)

	// CompleteRun marks a run finished with its final status, counts,
	// and error message (empty on success).
	CompleteRun(id string, status core.RunStatus, counts core.RunCounts, errMsg string) error

	// GetRun retrieves a run by ID.
	GetRun(id string) (*core.Run, error)

	// GetLatestRun retrieves the most recent run of a kind, or nil when
	// none exists.
	GetLatestRun(kind string) (*core.Run, error)

	// ListRuns retrieves the most recent runs, newest first.
	ListRuns(limit int) ([]*core.Run, error)
}

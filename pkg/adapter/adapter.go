// Package adapter defines the database adapter contract for the
// brandpulse relational sink.
//
// Concrete adapter implementations live in pkg/adapters/ subdirectories
// and register themselves on import. The sink and the query tooling only
// speak to this interface; nothing outside the adapter packages knows
// which driver is underneath.
package adapter

import (
	"context"
	"database/sql"

	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// Type aliases so callers can use adapter.Config etc. without importing
// pkg/core as well.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter is the interface every sink database adapter implements.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// DB exposes the underlying sql.DB handle for callers that need
	// transactions, like the sink's replace-all loader.
	DB() *sql.DB

	// Exec executes a statement that doesn't return rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// TableMetadata retrieves column and row-count metadata for a table.
	TableMetadata(ctx context.Context, table string) (*Metadata, error)

	// LoadCSV loads a CSV file into a table, creating or replacing it.
	LoadCSV(ctx context.Context, tableName string, filePath string) error

	// Placeholder returns the bind-parameter syntax for the i-th
	// argument (1-based): "?" for sqlite/duckdb, "$1" for postgres.
	Placeholder(i int) string

	// Kind returns the adapter type name ("sqlite", "duckdb", "postgres").
	Kind() string
}

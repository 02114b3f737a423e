package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, DB, Exec, and Query implementations.
type BaseSQLAdapter struct {
	Handle *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
}

// DB returns the underlying sql.DB handle, or nil before Connect.
func (b *BaseSQLAdapter) DB() *sql.DB {
	return b.Handle
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.Handle != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.Handle.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string, args ...any) error {
	if b.Handle == nil {
		return fmt.Errorf("database connection not established")
	}
	if _, err := b.Handle.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string, args ...any) (*core.Rows, error) {
	if b.Handle == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.Handle.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.Handle != nil
}

// Placeholder returns the default "?" bind syntax. Adapters with
// positional placeholders (postgres) override this.
func (b *BaseSQLAdapter) Placeholder(_ int) string {
	return "?"
}

// PragmaTableMetadata is a shared TableMetadata implementation for
// engines that support sqlite-style PRAGMA table_info (sqlite, duckdb).
func (b *BaseSQLAdapter) PragmaTableMetadata(ctx context.Context, table string) (*core.TableMetadata, error) {
	if b.Handle == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := b.Handle.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var (
			cid        int
			col        core.Column
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = notNull == 0
		col.Position = cid + 1
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %q", table) //nolint:gosec // table names come from the fixed schema set
	var rowCount int64
	if err := b.Handle.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		rowCount = 0
	}

	return &core.TableMetadata{
		Name:     table,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}

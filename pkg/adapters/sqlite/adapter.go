// Package sqlite provides the default SQLite sink adapter, backed by the
// pure-Go modernc.org driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/brandpulse-labs/brandpulse/pkg/adapter"

	_ "modernc.org/sqlite" // sqlite driver
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Kind returns the adapter type name.
func (a *Adapter) Kind() string {
	return "sqlite"
}

// Connect opens the SQLite database file, creating parent directories as
// needed. Use ":memory:" as the path for an in-memory database. The
// Options map supports "mode" (e.g. "ro" for read-only connections).
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", buildDSN(path, cfg.Options))
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}

	// Each pool connection to :memory: would get its own empty database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.Logger.Debug("connected to sqlite", slog.String("path", path))

	a.Handle = db
	a.Cfg = cfg
	return nil
}

// buildDSN assembles the modernc DSN. Pragmas use the driver's
// _pragma=name(value) syntax.
func buildDSN(path string, options map[string]string) string {
	params := []string{
		"_pragma=busy_timeout(5000)",
		"_pragma=journal_mode(wal)",
		"_pragma=foreign_keys(1)",
	}
	if mode, ok := options["mode"]; ok && mode != "" {
		params = append(params, "mode="+url.QueryEscape(mode))
	}
	return "file:" + path + "?" + strings.Join(params, "&")
}

// TableMetadata retrieves metadata for a specified table.
func (a *Adapter) TableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.PragmaTableMetadata(ctx, table)
}

// LoadCSV loads data from a CSV file into a table, replacing any prior
// table of the same name. All columns are created as TEXT; SQLite's
// flexible typing makes that good enough for interchange files.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string) error {
	if a.Handle == nil {
		return fmt.Errorf("database connection not established")
	}

	file, err := os.Open(filePath) //nolint:gosec // filePath comes from the operator's --csv flag
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	headers, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	tx, err := a.Handle.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q", tableName)); err != nil {
		return fmt.Errorf("failed to drop existing table: %w", err)
	}

	colDefs := make([]string, len(headers))
	for i, col := range headers {
		colDefs[i] = fmt.Sprintf("%q TEXT", col)
	}
	createSQL := fmt.Sprintf("CREATE TABLE %q (%s)", tableName, strings.Join(colDefs, ", "))
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(headers)), ",")
	insertSQL := fmt.Sprintf("INSERT INTO %q VALUES (%s)", tableName, placeholders) //nolint:gosec // identifiers are quoted
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV row: %w", err)
		}
		args := make([]any, len(row))
		for i, v := range row {
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert CSV row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit CSV load: %w", err)
	}
	return nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)

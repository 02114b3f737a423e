package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brandpulse-labs/brandpulse/pkg/adapter"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// sampleLimit is how many rows a post-load verification fetches.
const sampleLimit = 5

// Loader writes to the sink through a connected adapter.
type Loader struct {
	adapter adapter.Adapter
	logger  *slog.Logger
}

// NewLoader creates a Loader on an already-connected adapter. A nil
// logger discards output.
func NewLoader(a adapter.Adapter, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{adapter: a, logger: logger}
}

// EnsureSchema creates every sink table that doesn't exist yet. It is
// idempotent and safe to run before every load.
func (l *Loader) EnsureSchema(ctx context.Context) error {
	for _, s := range schemaDDL {
		for _, stmt := range dialectDDL(l.adapter.Kind(), s.table, s.ddl) {
			if err := l.adapter.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("create table %s: %w", s.table, err)
			}
		}
	}
	l.logger.Debug("sink schema ready", "tables", len(schemaDDL))
	return nil
}

// Replace swaps the table's contents for rows in one transaction: delete
// everything, then insert the new set. Never an upsert or append. Rows
// must already be deduplicated; a duplicate key here is a caller error
// and fails the transaction.
func (l *Loader) Replace(ctx context.Context, table string, columns []string, rows [][]any) error {
	db := l.adapter.DB()
	if db == nil {
		return fmt.Errorf("adapter %s is not connected", l.adapter.Kind())
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear table %s: %w", table, err)
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = l.adapter.Placeholder(i + 1)
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row %d has %d values for %d columns", i, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert row %d into %s: %w", i, table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load into %s: %w", table, err)
	}

	l.logger.Info("replaced table contents", "table", table, "rows", len(rows))
	return nil
}

// Count returns the table's row count.
func (l *Loader) Count(ctx context.Context, table string) (int64, error) {
	rows, err := l.adapter.Query(ctx, "SELECT COUNT(*) FROM "+table)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, fmt.Errorf("scan count for %s: %w", table, err)
		}
	}
	return count, rows.Err()
}

// Sample fetches a handful of verification rows from a processed table:
// the key, the brand or community, and the sentiment label.
func (l *Loader) Sample(ctx context.Context, table string) ([]core.SampleRow, error) {
	var groupCol string
	switch table {
	case TableYouTubeProcessed:
		groupCol = "brand"
	case TableRedditProcessed:
		groupCol = "subreddit"
	default:
		return nil, fmt.Errorf("no sample query for table %s", table)
	}

	query := fmt.Sprintf("SELECT id, %s, sentiment_label FROM %s LIMIT %d", groupCol, table, sampleLimit)
	rows, err := l.adapter.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", table, err)
	}
	defer rows.Close()

	var samples []core.SampleRow
	for rows.Next() {
		var s core.SampleRow
		var brand, sentiment *string
		if err := rows.Scan(&s.ID, &brand, &sentiment); err != nil {
			return nil, fmt.Errorf("scan sample row: %w", err)
		}
		if brand != nil {
			s.Brand = *brand
		}
		if sentiment != nil {
			s.Sentiment = *sentiment
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// Verify logs the row count and a few sample rows after a load.
func (l *Loader) Verify(ctx context.Context, table string) error {
	count, err := l.Count(ctx, table)
	if err != nil {
		return err
	}

	samples, err := l.Sample(ctx, table)
	if err != nil {
		return err
	}

	l.logger.Info("verified load", "table", table, "rows", count)
	for _, s := range samples {
		l.logger.Info("sample row", "table", table, "id", s.ID, "brand", s.Brand, "sentiment", s.Sentiment)
	}
	return nil
}

// LoadCSV loads a CSV file into a table through the adapter, replacing
// any existing contents.
func (l *Loader) LoadCSV(ctx context.Context, table, path string) error {
	if err := l.adapter.LoadCSV(ctx, table, path); err != nil {
		return fmt.Errorf("load csv into %s: %w", table, err)
	}
	l.logger.Info("loaded csv", "table", table, "path", path)
	return nil
}

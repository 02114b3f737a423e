package commands

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/brandpulse-labs/brandpulse/internal/sink"
	"github.com/brandpulse-labs/brandpulse/pkg/adapter"
)

func renderResults(w io.Writer, rows *sql.Rows, format string) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	// Collect all rows
	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return err
		}

		row := make(map[string]any)
		for i, col := range cols {
			val := values[i]
			// Convert []byte to string for readability
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[col] = val
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return err
	}

	switch format {
	case "json":
		return renderJSON(w, results)
	case "csv":
		return renderCSV(w, cols, results)
	case "md", "markdown":
		return renderMarkdown(w, cols, results)
	default:
		return renderTable(w, cols, results)
	}
}

func renderTable(w io.Writer, cols []string, results []map[string]any) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	// Header
	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	// Rows
	for _, result := range results {
		row := make(table.Row, len(cols))
		for i, col := range cols {
			row[i] = formatValue(result[col])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(results))
	return nil
}

func renderJSON(w io.Writer, results []map[string]any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func renderCSV(w io.Writer, cols []string, results []map[string]any) error {
	// Header
	_, _ = fmt.Fprintln(w, strings.Join(cols, ","))

	// Rows
	for _, result := range results {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = escapeCSV(formatValue(result[col]))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, cols []string, results []map[string]any) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	// Header
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(cols, " | "))
	// Separator
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	// Rows
	for _, result := range results {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = formatValue(result[col])
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// Helper functions for subcommands

// listSinkTables lists the analytics tables that exist in the connected
// database with their row counts. Tables not created yet are skipped.
func listSinkTables(ctx context.Context, w io.Writer, a adapter.Adapter, format string) error {
	var results []map[string]any
	for _, name := range sink.Tables() {
		meta, err := a.TableMetadata(ctx, name)
		if err != nil {
			continue
		}
		results = append(results, map[string]any{"name": name, "rows": meta.RowCount})
	}

	if len(results) == 0 && format != "json" {
		_, _ = fmt.Fprintln(w, "No analytics tables found. Run 'brandpulse run' or 'brandpulse kpi' first.")
		return nil
	}

	cols := []string{"name", "rows"}
	switch format {
	case "json":
		return renderJSON(w, results)
	case "csv":
		return renderCSV(w, cols, results)
	case "md", "markdown":
		return renderMarkdown(w, cols, results)
	default:
		return renderTable(w, cols, results)
	}
}

type columnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Position int    `json:"position"`
}

type schemaOutput struct {
	Table    string       `json:"table"`
	RowCount int64        `json:"row_count"`
	Columns  []columnInfo `json:"columns"`
}

// showSinkSchema renders the column layout of one analytics table.
func showSinkSchema(ctx context.Context, w io.Writer, a adapter.Adapter, tableName, format string) error {
	meta, err := a.TableMetadata(ctx, tableName)
	if err != nil {
		return err
	}

	columns := make([]columnInfo, 0, len(meta.Columns))
	for _, c := range meta.Columns {
		columns = append(columns, columnInfo{
			Name:     c.Name,
			Type:     c.Type,
			Nullable: c.Nullable,
			Position: c.Position,
		})
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(schemaOutput{Table: meta.Name, RowCount: meta.RowCount, Columns: columns})
	}

	_, _ = fmt.Fprintf(w, "Schema for table '%s':\n\n", meta.Name)
	results := make([]map[string]any, 0, len(columns))
	for _, c := range columns {
		results = append(results, map[string]any{
			"name":     c.Name,
			"type":     c.Type,
			"nullable": c.Nullable,
			"position": c.Position,
		})
	}
	if err := renderColumns(w, results, format); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "\n%d rows in table\n", meta.RowCount)
	return nil
}

func renderColumns(w io.Writer, results []map[string]any, format string) error {
	cols := []string{"position", "name", "type", "nullable"}
	switch format {
	case "csv":
		return renderCSV(w, cols, results)
	case "md", "markdown":
		return renderMarkdown(w, cols, results)
	default:
		return renderTable(w, cols, results)
	}
}


package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/brandpulse-labs/brandpulse/pkg/adapter"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [sql]",
		Short: "Query the analytics database",
		Long: `Execute SQL against the analytics database.

With no arguments and a terminal attached, starts an interactive REPL.
SQL can also be passed as an argument, piped on stdin, or read from a
file with --input.`,
		Example: `  # Interactive REPL
  brandpulse query

  # Direct query
  brandpulse query "SELECT brand, COUNT(*) FROM youtube_processed GROUP BY brand"

  # From a file, rendered as CSV
  brandpulse query --input report.sql --format csv

  # Piped
  echo "SELECT * FROM marketing_kpis" | brandpulse query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format (table|json|csv|md)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from a file")

	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cfg := getConfig()
	logger := getLogger(cmd)
	ctx := cmd.Context()
	format := resolveFormat(opts.Format)

	// Direct SQL as argument
	if len(args) > 0 {
		return withSink(ctx, cmd, func(a adapter.Adapter) error {
			return executeAndRender(ctx, cmd.OutOrStdout(), a, strings.Join(args, " "), format)
		})
	}

	// SQL from file
	if opts.Input != "" {
		data, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		return withSink(ctx, cmd, func(a adapter.Adapter) error {
			return executeAndRender(ctx, cmd.OutOrStdout(), a, string(data), format)
		})
	}

	// Piped stdin
	if !isTerminal(os.Stdin) {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		sqlText := strings.TrimSpace(string(data))
		if sqlText == "" {
			return fmt.Errorf("no SQL provided on stdin")
		}
		return withSink(ctx, cmd, func(a adapter.Adapter) error {
			return executeAndRender(ctx, cmd.OutOrStdout(), a, sqlText, format)
		})
	}

	// Interactive REPL
	a, err := openSinkForQuery(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return runQueryREPL(cmd, cfg, a, format)
}

// withSink runs fn against the analytics database and closes it after.
func withSink(ctx context.Context, cmd *cobra.Command, fn func(adapter.Adapter) error) error {
	a, err := openSinkForQuery(ctx, getConfig(), getLogger(cmd))
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(a)
}

// executeAndRender runs one query and renders the result set.
func executeAndRender(ctx context.Context, w io.Writer, a adapter.Adapter, sqlText, format string) error {
	rows, err := a.Query(ctx, sqlText)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return renderResults(w, rows.Rows, format)
}

func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List analytics tables with row counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSink(cmd.Context(), cmd, func(a adapter.Adapter) error {
				return listSinkTables(cmd.Context(), cmd.OutOrStdout(), a, resolveFormat(opts.Format))
			})
		},
	}
}

func newQuerySchemaCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show the schema of an analytics table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSink(cmd.Context(), cmd, func(a adapter.Adapter) error {
				return showSinkSchema(cmd.Context(), cmd.OutOrStdout(), a, args[0], resolveFormat(opts.Format))
			})
		},
	}
}

// resolveFormat fills in the effective output format: the query flag,
// then the global --output setting, then TTY detection (table on a
// terminal, csv when piped).
func resolveFormat(flagFormat string) string {
	format := flagFormat
	if format == "" {
		format = getConfig().OutputFormat
	}
	switch format {
	case "", "auto":
		if isTerminal(os.Stdout) {
			return "table"
		}
		return "csv"
	default:
		return format
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/brandpulse-labs/brandpulse/internal/state"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// RunsOptions holds options for the runs command.
type RunsOptions struct {
	Limit  int
	Format string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	opts := &RunsOptions{}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent pipeline runs",
		Long: `List the most recent pipeline, extraction, processing and KPI runs
recorded in the state database, newest first.`,
		Example: `  # Show the last 20 runs
  brandpulse runs

  # Show the last 5 runs as JSON
  brandpulse runs --limit 5 --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format (table|json)")

	return cmd
}

func runRuns(cmd *cobra.Command, opts *RunsOptions) error {
	cfg := getConfig()
	logger := getLogger(cmd)

	if _, err := os.Stat(cfg.StatePath); err != nil {
		return fmt.Errorf("state database not found at %s (run 'brandpulse run' first)", cfg.StatePath)
	}

	st := state.NewSQLiteStore(logger)
	if err := st.Open(cfg.StatePath); err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	runs, err := st.ListRuns(opts.Limit)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		results := make([]runResult, 0, len(runs))
		for _, r := range runs {
			results = append(results, runResult{
				ID:          r.ID,
				Kind:        r.Kind,
				Source:      r.Source,
				Status:      string(r.Status),
				StartedAt:   r.StartedAt,
				CompletedAt: r.CompletedAt,
				Extracted:   r.Counts.Extracted,
				Processed:   r.Counts.Processed,
				Deduped:     r.Counts.Deduped,
				Enriched:    r.Counts.Enriched,
				Loaded:      r.Counts.Loaded,
				Error:       r.Error,
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	renderRuns(cmd.OutOrStdout(), runs)
	return nil
}

func renderRuns(w io.Writer, runs []*core.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "KIND", "SOURCE", "STATUS", "STARTED", "DURATION", "EXTRACTED", "LOADED"})

	for _, r := range runs {
		t.AppendRow(table.Row{
			shortID(r.ID),
			r.Kind,
			r.Source,
			r.Status,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			runDuration(r),
			r.Counts.Extracted,
			r.Counts.Loaded,
		})
	}

	t.Render()
	fmt.Fprintf(w, "(%d runs)\n", len(runs))
}

func runDuration(r *core.Run) string {
	if r.CompletedAt == nil {
		return "-"
	}
	return r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}

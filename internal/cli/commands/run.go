package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Source      string
	SkipExtract bool
	Topics      bool
	JSONOutput  bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: extract, process, load",
		Long: `Extract brand mentions from the configured sources, enrich them with
sentiment and topic labels, and load them into the analytics database.

Sources without credentials are skipped, so processing still works off
previously stored raw data. Every run is recorded in the state database
with its per-stage record counts.`,
		Example: `  # Run the full pipeline for all sources
  brandpulse run

  # Extract only Reddit, then process
  brandpulse run --source reddit

  # Re-process stored raw data without extracting
  brandpulse run --skip-extract

  # Run with JSON output for CI/CD integration
  brandpulse run --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Source, "source", "s", "all", "Source to extract (reddit|youtube|all)")
	cmd.Flags().BoolVar(&opts.SkipExtract, "skip-extract", false, "Skip extraction and process previously stored raw data")
	cmd.Flags().BoolVar(&opts.Topics, "topics", false, "Assign topic labels to Reddit records")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Output the run result as JSON")

	_ = cmd.RegisterFlagCompletionFunc("source", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"reddit", "youtube", "all"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	cfg := getConfig()
	logger := getLogger(cmd)
	ctx := cmd.Context()

	topics := opts.Topics || cfg.Enrich.Topics

	set, err := buildPipeline(ctx, cfg, pipelineOptions{Source: opts.Source, Topics: topics}, logger)
	if err != nil {
		return err
	}
	defer set.Close(ctx)

	if !opts.JSONOutput {
		if opts.SkipExtract {
			fmt.Fprintf(cmd.OutOrStdout(), "Processing stored raw data...\n\n")
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Running pipeline (%s)...\n\n", opts.Source)
		}
	}

	start := time.Now()
	var run *core.Run
	if opts.SkipExtract {
		run, err = set.Pipeline.Process(ctx)
	} else {
		run, err = set.Pipeline.Run(ctx)
	}

	if run != nil {
		if opts.JSONOutput {
			if jsonErr := printRunJSON(cmd.OutOrStdout(), run, time.Since(start)); jsonErr != nil {
				return jsonErr
			}
		} else {
			printRunSummary(cmd.OutOrStdout(), run, time.Since(start))
		}
	}
	return err
}

func printRunSummary(w io.Writer, run *core.Run, elapsed time.Duration) {
	fmt.Fprintf(w, "Run %s (%s)\n", shortID(run.ID), run.Kind)
	fmt.Fprintf(w, "  Extracted: %d\n", run.Counts.Extracted)
	fmt.Fprintf(w, "  Processed: %d\n", run.Counts.Processed)
	fmt.Fprintf(w, "  Deduped:   %d\n", run.Counts.Deduped)
	fmt.Fprintf(w, "  Enriched:  %d\n", run.Counts.Enriched)
	fmt.Fprintf(w, "  Loaded:    %d\n", run.Counts.Loaded)

	switch run.Status {
	case core.RunStatusCompleted:
		fmt.Fprintf(w, "\nCompleted in %dms\n", elapsed.Milliseconds())
	case core.RunStatusFailed:
		fmt.Fprintf(w, "\nFailed after %dms: %s\n", elapsed.Milliseconds(), run.Error)
	default:
		fmt.Fprintf(w, "\nStatus: %s\n", run.Status)
	}
}

// runResult is the JSON shape of a finished run.
type runResult struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Source      string     `json:"source,omitempty"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Extracted   int64      `json:"extracted"`
	Processed   int64      `json:"processed"`
	Deduped     int64      `json:"deduped"`
	Enriched    int64      `json:"enriched"`
	Loaded      int64      `json:"loaded"`
	Error       string     `json:"error,omitempty"`
	ElapsedMS   int64      `json:"elapsed_ms"`
}

func printRunJSON(w io.Writer, run *core.Run, elapsed time.Duration) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(runResult{
		ID:          run.ID,
		Kind:        run.Kind,
		Source:      run.Source,
		Status:      string(run.Status),
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
		Extracted:   run.Counts.Extracted,
		Processed:   run.Counts.Processed,
		Deduped:     run.Counts.Deduped,
		Enriched:    run.Counts.Enriched,
		Loaded:      run.Counts.Loaded,
		Error:       run.Error,
		ElapsedMS:   elapsed.Milliseconds(),
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/brandpulse-labs/brandpulse/internal/cli/config"
	"github.com/brandpulse-labs/brandpulse/internal/sink"
)

// ProcessOptions holds options for the process command.
type ProcessOptions struct {
	Topics    bool
	ExportCSV bool
}

// NewProcessCommand creates the process command.
func NewProcessCommand() *cobra.Command {
	opts := &ProcessOptions{}

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process stored raw data into the analytics database",
		Long: `Read the newest extraction of every source from the raw store, clean
and enrich the records, and load them into the analytics database.

Processing replaces the previous processed tables, so re-running is
always safe.`,
		Example: `  # Process whatever the raw store holds
  brandpulse process

  # Process and label Reddit records with topics
  brandpulse process --topics

  # Process and export the processed tables as CSV
  brandpulse process --export-csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProcess(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Topics, "topics", false, "Assign topic labels to Reddit records")
	cmd.Flags().BoolVar(&opts.ExportCSV, "export-csv", false, "Export the processed tables as CSV after loading")

	return cmd
}

func runProcess(cmd *cobra.Command, opts *ProcessOptions) error {
	cfg := getConfig()
	logger := getLogger(cmd)
	ctx := cmd.Context()

	topics := opts.Topics || cfg.Enrich.Topics

	set, err := buildPipeline(ctx, cfg, pipelineOptions{Topics: topics}, logger)
	if err != nil {
		return err
	}
	defer set.Close(ctx)

	fmt.Fprintf(cmd.OutOrStdout(), "Processing stored raw data...\n\n")

	start := time.Now()
	run, err := set.Pipeline.Process(ctx)
	if run != nil {
		printRunSummary(cmd.OutOrStdout(), run, time.Since(start))
	}
	if err != nil {
		return err
	}

	if opts.ExportCSV {
		return exportProcessed(ctx, cmd.OutOrStdout(), cfg, set.Loader)
	}
	return nil
}

// exportProcessed writes the processed tables to the export directory,
// skipping tables with no rows.
func exportProcessed(ctx context.Context, w io.Writer, cfg *config.Config, loader *sink.Loader) error {
	if err := os.MkdirAll(cfg.ExportDir, 0750); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	for _, table := range []string{sink.TableRedditProcessed, sink.TableYouTubeProcessed} {
		n, err := loader.Count(ctx, table)
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}

		path := filepath.Join(cfg.ExportDir, table+".csv")
		if err := loader.ExportCSV(ctx, table, path); err != nil {
			return err
		}
		fmt.Fprintf(w, "Exported %d rows to %s\n", n, path)
	}
	return nil
}

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// ExtractOptions holds options for the extract command.
type ExtractOptions struct {
	Source string
}

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract raw brand mentions into the raw store",
		Long: `Extract brand mentions from the configured sources and store the raw
records without processing them.

Each source keeps only its newest extraction. Sources without
credentials run in demo mode and are skipped.`,
		Example: `  # Extract from all configured sources
  brandpulse extract

  # Extract Reddit only
  brandpulse extract --source reddit`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Source, "source", "s", "all", "Source to extract (reddit|youtube|all)")

	_ = cmd.RegisterFlagCompletionFunc("source", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"reddit", "youtube", "all"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runExtract(cmd *cobra.Command, opts *ExtractOptions) error {
	cfg := getConfig()
	logger := getLogger(cmd)
	ctx := cmd.Context()

	set, err := buildPipeline(ctx, cfg, pipelineOptions{Source: opts.Source}, logger)
	if err != nil {
		return err
	}
	defer set.Close(ctx)

	fmt.Fprintf(cmd.OutOrStdout(), "Extracting (%s)...\n\n", opts.Source)

	start := time.Now()
	run, err := set.Pipeline.Extract(ctx)
	if err != nil {
		if run != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Extraction failed after %dms: %s\n",
				time.Since(start).Milliseconds(), run.Error)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d records in %dms (raw store: %s)\n",
		run.Counts.Extracted, time.Since(start).Milliseconds(), set.RawStore.Kind())
	if run.Counts.Extracted == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No records extracted. Configure source credentials to leave demo mode.")
	}
	return nil
}

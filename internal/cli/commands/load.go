package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// LoadOptions holds options for the load command.
type LoadOptions struct {
	Table string
}

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	opts := &LoadOptions{}

	cmd := &cobra.Command{
		Use:   "load <file.csv>",
		Short: "Load a CSV file into the analytics database",
		Long: `Load a CSV file into an analytics table, replacing any prior table of
the same name. All columns are loaded as text.

The table name defaults to the file name without its extension.`,
		Example: `  # Load into a table named after the file
  brandpulse load data/exports/reddit_processed.csv

  # Load into an explicit table
  brandpulse load survey.csv --table brand_survey`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Table, "table", "t", "", "Target table (default: file name without extension)")

	return cmd
}

func runLoad(cmd *cobra.Command, path string, opts *LoadOptions) error {
	cfg := getConfig()
	logger := getLogger(cmd)
	ctx := cmd.Context()

	table := opts.Table
	if table == "" {
		table = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if table == "" {
		return fmt.Errorf("cannot derive a table name from %q, use --table", path)
	}

	a, loader, err := openSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := loader.LoadCSV(ctx, table, path); err != nil {
		return err
	}

	n, err := loader.Count(ctx, table)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d rows into %s\n", n, table)
	return nil
}

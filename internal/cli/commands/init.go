package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	sharedcfg "github.com/brandpulse-labs/brandpulse/internal/config"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new BrandPulse project",
		Long: `Initialize a new BrandPulse project with the default directory layout
and configuration.

This creates:
  - brandpulse.yaml configuration file
  - data/raw_json/ directory for raw extractions
  - data/exports/ directory for CSV exports
  - .brandpulse/ directory for the run-state database`,
		Example: `  # Initialize in current directory
  brandpulse init

  # Initialize in a new directory
  brandpulse init my-project

  # Force overwrite existing config
  brandpulse init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

// scaffoldConfig is the config file shape init writes. It mirrors the
// loader's koanf keys with documented defaults filled in.
type scaffoldConfig struct {
	DataDir  string `yaml:"data_dir"`
	Database struct {
		Type string `yaml:"type"`
		Path string `yaml:"path"`
	} `yaml:"database"`
	Sources struct {
		Reddit struct {
			ClientID     string   `yaml:"client_id"`
			ClientSecret string   `yaml:"client_secret"`
			Subreddits   []string `yaml:"subreddits"`
			SearchTerms  []string `yaml:"search_terms"`
		} `yaml:"reddit"`
		YouTube struct {
			APIKey string   `yaml:"api_key"`
			Brands []string `yaml:"brands"`
		} `yaml:"youtube"`
	} `yaml:"sources"`
	Enrich struct {
		APIToken string `yaml:"api_token"`
	} `yaml:"enrich"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	// Create directory if specified and doesn't exist
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	// Check if config already exists
	configPath := filepath.Join(dir, sharedcfg.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", sharedcfg.ConfigFileName)
	}

	var scaffold scaffoldConfig
	scaffold.DataDir = sharedcfg.DefaultDataDir
	scaffold.Database.Type = sharedcfg.DefaultDatabaseType
	scaffold.Database.Path = sharedcfg.DefaultDatabasePath
	scaffold.Sources.Reddit.ClientID = "${REDDIT_CLIENT_ID}"
	scaffold.Sources.Reddit.ClientSecret = "${REDDIT_CLIENT_SECRET}"
	scaffold.Sources.Reddit.Subreddits = sharedcfg.DefaultSubreddits
	scaffold.Sources.Reddit.SearchTerms = sharedcfg.DefaultSearchTerms
	scaffold.Sources.YouTube.APIKey = "${YOUTUBE_API_KEY}"
	scaffold.Sources.YouTube.Brands = sharedcfg.DefaultBrands
	scaffold.Enrich.APIToken = "${HF_API_TOKEN}"
	scaffold.Server.Port = sharedcfg.DefaultServerPort

	data, err := yaml.Marshal(&scaffold)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", sharedcfg.ConfigFileName, err)
	}

	created := []string{sharedcfg.ConfigFileName}
	for _, sub := range []string{
		sharedcfg.DefaultRawDir,
		sharedcfg.DefaultExportDir,
		".brandpulse",
	} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0750); err != nil {
			return fmt.Errorf("failed to create %s: %w", sub, err)
		}
		created = append(created, sub+"/")
	}

	out := cmd.OutOrStdout()
	for _, f := range created {
		fmt.Fprintf(out, "  created %s\n", f)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "BrandPulse project initialized!")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Export source credentials (REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET, YOUTUBE_API_KEY)")
	fmt.Fprintln(out, "  2. Run 'brandpulse run' to extract and process brand mentions")
	fmt.Fprintln(out, "  3. Run 'brandpulse kpi' to generate the demo marketing tables")
	fmt.Fprintln(out, "  4. Run 'brandpulse serve' to start the dashboard API")

	return nil
}

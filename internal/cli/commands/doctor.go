package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/brandpulse-labs/brandpulse/internal/cli/config"
	"github.com/brandpulse-labs/brandpulse/internal/rawstore"
	"github.com/brandpulse-labs/brandpulse/internal/sink"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the project setup and its collaborators",
		Long: `Check that the BrandPulse project is ready to run.

The doctor command inspects:
- Project layout (config file, data directories)
- Storage (analytics database, run-state database, raw store)
- Source credentials (Reddit, YouTube)
- Enrichment settings (inference API)

Checks report pass, warn, or error. Warnings mean a degraded mode
(demo-mode extraction, JSON raw-store fallback) rather than a broken
setup.`,
		Example: `  # Check the current project
  brandpulse doctor

  # Machine-readable report
  brandpulse doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format: text, json")

	return cmd
}

// DoctorCheck is a single health-check result.
type DoctorCheck struct {
	Name    string   `json:"name"`
	Group   string   `json:"group"`
	Status  string   `json:"status"` // "pass", "warn", "error"
	Details []string `json:"details,omitempty"`
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Checks []DoctorCheck `json:"checks"`
	Passed int           `json:"passed"`
	Warned int           `json:"warned"`
	Failed int           `json:"failed"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cfg := getConfig()
	logger := getLogger(cmd)
	ctx := cmd.Context()

	checks := []DoctorCheck{
		checkConfigFile(cfg),
		checkDataDirs(cfg),
		checkAnalyticsDB(ctx, cfg, logger),
		checkStateDB(cfg, logger),
		checkRawStore(ctx, cfg, logger),
		checkRedditCredentials(cfg),
		checkYouTubeCredentials(cfg),
		checkEnrichment(cfg),
	}

	out := &DoctorOutput{Checks: checks}
	for _, c := range checks {
		switch c.Status {
		case "pass":
			out.Passed++
		case "warn":
			out.Warned++
		default:
			out.Failed++
		}
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	renderDoctorText(cmd, out)
	return nil
}

func checkConfigFile(_ *config.Config) DoctorCheck {
	check := DoctorCheck{Name: "config file", Group: "project"}
	if path := config.GetConfigFileUsed(); path != "" {
		check.Status = "pass"
		check.Details = []string{path}
		return check
	}
	check.Status = "warn"
	check.Details = []string{"no brandpulse.yaml found, using built-in defaults (run 'brandpulse init')"}
	return check
}

func checkDataDirs(cfg *config.Config) DoctorCheck {
	check := DoctorCheck{Name: "data directories", Group: "project", Status: "pass"}
	for _, dir := range []string{cfg.DataDir, cfg.RawStore.Dir, cfg.ExportDir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			check.Status = "warn"
			check.Details = append(check.Details, fmt.Sprintf("%s missing (created on first use)", dir))
		}
	}
	return check
}

func checkAnalyticsDB(ctx context.Context, cfg *config.Config, logger *slog.Logger) DoctorCheck {
	check := DoctorCheck{Name: "analytics database", Group: "storage"}

	if err := cfg.Database.Validate(); err != nil {
		check.Status = "error"
		check.Details = []string{err.Error()}
		return check
	}

	if t := cfg.Database.Type; t == "sqlite" || t == "duckdb" {
		path := cfg.Database.Path
		if path != "" && path != ":memory:" {
			if _, err := os.Stat(path); err != nil {
				check.Status = "warn"
				check.Details = []string{fmt.Sprintf("%s (%s) not created yet, run 'brandpulse run' or 'brandpulse kpi'", path, t)}
				return check
			}
		}
	}

	a, _, err := openSink(ctx, cfg, logger)
	if err != nil {
		check.Status = "error"
		check.Details = []string{err.Error()}
		return check
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Warn("failed to close analytics database", "error", cerr)
		}
	}()

	check.Status = "pass"
	check.Details = []string{fmt.Sprintf("connected (%s)", a.Kind())}
	for _, table := range sink.Tables() {
		meta, err := a.TableMetadata(ctx, table)
		if err != nil {
			continue // table not loaded yet
		}
		check.Details = append(check.Details, fmt.Sprintf("%s: %d rows", table, meta.RowCount))
	}
	return check
}

func checkStateDB(cfg *config.Config, logger *slog.Logger) DoctorCheck {
	check := DoctorCheck{Name: "state database", Group: "storage"}

	if _, err := os.Stat(cfg.StatePath); err != nil {
		check.Status = "warn"
		check.Details = []string{fmt.Sprintf("%s not created yet, no runs recorded", cfg.StatePath)}
		return check
	}

	st, err := openState(cfg, logger)
	if err != nil {
		check.Status = "error"
		check.Details = []string{err.Error()}
		return check
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("failed to close state database", "error", cerr)
		}
	}()

	check.Status = "pass"
	runs, err := st.ListRuns(1)
	if err == nil && len(runs) > 0 {
		r := runs[0]
		check.Details = []string{fmt.Sprintf("last run: %s %s (%s)", r.Kind, r.Status, r.ID)}
	} else {
		check.Details = []string{"no runs recorded yet"}
	}
	return check
}

func checkRawStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) DoctorCheck {
	check := DoctorCheck{Name: "raw store", Group: "storage"}

	store := rawstore.Open(ctx, *cfg.RawStore, logger)
	defer func() {
		if cerr := store.Close(ctx); cerr != nil {
			logger.Warn("failed to close raw store", "error", cerr)
		}
	}()

	if store.Kind() == "mongodb" {
		check.Status = "pass"
		check.Details = []string{fmt.Sprintf("mongodb reachable at %s", cfg.RawStore.MongoURI)}
		return check
	}

	check.Status = "warn"
	check.Details = []string{fmt.Sprintf("mongodb unreachable, falling back to JSON files in %s", cfg.RawStore.Dir)}
	return check
}

func checkRedditCredentials(cfg *config.Config) DoctorCheck {
	check := DoctorCheck{Name: "reddit credentials", Group: "sources"}
	r := cfg.Sources.Reddit
	if r != nil && r.ClientID != "" && r.ClientSecret != "" {
		check.Status = "pass"
		check.Details = []string{fmt.Sprintf("%d subreddits, %d search terms", len(r.Subreddits), len(r.SearchTerms))}
		return check
	}
	check.Status = "warn"
	check.Details = []string{"REDDIT_CLIENT_ID / REDDIT_CLIENT_SECRET not set, extractor runs in demo mode"}
	return check
}

func checkYouTubeCredentials(cfg *config.Config) DoctorCheck {
	check := DoctorCheck{Name: "youtube credentials", Group: "sources"}
	y := cfg.Sources.YouTube
	if y != nil && y.APIKey != "" {
		check.Status = "pass"
		check.Details = []string{fmt.Sprintf("%d brands, daily quota %d units", len(y.Brands), y.DailyQuota)}
		return check
	}
	check.Status = "warn"
	check.Details = []string{"YOUTUBE_API_KEY not set, extractor runs in demo mode"}
	return check
}

func checkEnrichment(cfg *config.Config) DoctorCheck {
	check := DoctorCheck{Name: "inference api", Group: "enrichment"}
	e := cfg.Enrich
	check.Details = []string{fmt.Sprintf("%s (model %s, batch %d)", e.InferenceURL, e.Model, e.BatchSize)}
	if e.APIToken == "" {
		check.Status = "warn"
		check.Details = append(check.Details, "no API token configured, unauthenticated requests are heavily rate limited")
		return check
	}
	check.Status = "pass"
	return check
}

func renderDoctorText(cmd *cobra.Command, out *DoctorOutput) {
	w := cmd.OutOrStdout()
	titleCaser := cases.Title(language.English)

	fmt.Fprintln(w, "BrandPulse Doctor")
	fmt.Fprintln(w, strings.Repeat("=", 40))

	currentGroup := ""
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			fmt.Fprintf(w, "\n%s\n", titleCaser.String(currentGroup))
		}

		mark := "ok"
		switch check.Status {
		case "warn":
			mark = "!!"
		case "error":
			mark = "XX"
		}
		fmt.Fprintf(w, "  [%s] %s\n", mark, check.Name)
		for _, detail := range check.Details {
			fmt.Fprintf(w, "       %s\n", detail)
		}
	}

	fmt.Fprintf(w, "\n%d passed, %d warnings, %d errors\n", out.Passed, out.Warned, out.Failed)
	if out.Failed == 0 && out.Warned == 0 {
		fmt.Fprintln(w, "Everything looks good.")
	}
}

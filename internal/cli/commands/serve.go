package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/brandpulse-labs/brandpulse/internal/ui"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port  int
	Watch bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard read API",
		Long: `Start a local server exposing the analytics database to the marketing
dashboard as a JSON API.

The API serves:
- Headline marketing KPIs
- Channel, source and campaign performance
- The impressions time series
- Voice-of-customer records with sentiment summaries
- Per-visitor dashboard preferences`,
		Example: `  # Serve on the configured port
  brandpulse serve

  # Serve on a custom port with cache invalidation on database change
  brandpulse serve --port 3000 --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Invalidate caches when the database file changes")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := getConfig()
	logger := getLogger(cmd)

	// The read store opens the database file directly; network engines
	// are queried through 'brandpulse query' instead.
	if cfg.Database.Type != "sqlite" {
		return fmt.Errorf("serve requires a sqlite analytics database, got %q", cfg.Database.Type)
	}

	port := cfg.Server.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	watch := cfg.Server.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	secret := cfg.Server.SessionKey
	if secret == "" {
		// Sessions survive only as long as this process.
		secret = uuid.NewString()
		logger.Warn("server.session_key not set, using a transient session key")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := ui.OpenStore(ctx, cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	srv := ui.NewServer(ui.Config{
		Store:         store,
		DBPath:        cfg.Database.Path,
		Port:          port,
		Watch:         watch,
		SessionSecret: secret,
		Logger:        logger,
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Serving dashboard API on http://localhost:%d (Ctrl+C to stop)\n", port)
	return srv.Serve(ctx)
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/brandpulse-labs/brandpulse/internal/cli/config"
	"github.com/brandpulse-labs/brandpulse/internal/sink"
	"github.com/brandpulse-labs/brandpulse/pkg/adapter"
)

func runQueryREPL(cmd *cobra.Command, cfg *config.Config, a adapter.Adapter, format string) error {
	ctx := cmd.Context()

	// Setup history file (project-local, next to the state database)
	historyFile := filepath.Join(filepath.Dir(cfg.StatePath), "query_history")

	// Configure readline
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "brandpulse> ",
		HistoryFile:     historyFile,
		AutoComplete:    newTableCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	// Print welcome message
	target := cfg.Database.Path
	if target == "" {
		target = cfg.Database.Database
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "BrandPulse query REPL (%s: %s)\n", cfg.Database.Type, target)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	// REPL loop
	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt("brandpulse> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle dot-commands
		if strings.HasPrefix(line, ".") {
			if handled := handleDotCommand(ctx, cmd, a, line, &format); handled {
				if line == ".quit" || line == ".exit" {
					break
				}
				continue
			}
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString(" ")
			rl.SetPrompt("       ...> ")
			continue
		}
		rl.SetPrompt("brandpulse> ")

		// Execute query
		query := strings.TrimSuffix(multiLineBuffer.String(), ";")
		multiLineBuffer.Reset()

		if err := executeAndRender(ctx, cmd.OutOrStdout(), a, query, format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

func handleDotCommand(ctx context.Context, cmd *cobra.Command, a adapter.Adapter, line string, format *string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())
		return true

	case ".tables":
		if err := listSinkTables(ctx, cmd.OutOrStdout(), a, *format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .schema <table>")
			return true
		}
		if err := showSinkSchema(ctx, cmd.OutOrStdout(), a, parts[1], *format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return true

	case ".format":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Current format: %s\n", *format)
			return true
		}
		switch parts[1] {
		case "table", "json", "csv", "md":
			*format = parts[1]
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Format set to %s\n", *format)
		default:
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown format: %s (expected table, json, csv or md)\n", parts[1])
		}
		return true

	case ".clear":
		fmt.Print("\033[H\033[2J")
		return true

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
		return true
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .tables         List analytics tables with row counts
  .schema <name>  Show schema for a table
  .format [fmt]   Show or set the output format (table|json|csv|md)
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// newTableCompleter creates a readline completer for the analytics
// tables and dot-commands.
func newTableCompleter() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	tableItems := make([]readline.PrefixCompleterInterface, 0, len(sink.Tables()))
	for _, name := range sink.Tables() {
		items = append(items, readline.PcItem(name))
		tableItems = append(tableItems, readline.PcItem(name))
	}

	// Add dot-commands
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", tableItems...),
		readline.PcItem(".format",
			readline.PcItem("table"),
			readline.PcItem("json"),
			readline.PcItem("csv"),
			readline.PcItem("md"),
		),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}

// Package main is the entry point for the brandpulse CLI.
package main

import (
	"os"

	"github.com/brandpulse-labs/brandpulse/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

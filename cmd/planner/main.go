// ABOUTME: Main entry point for the migration planner CLI
// ABOUTME: Runs the Cobra root command and maps configuration failures to their own exit code
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/harper/migration-planner/cmd/planner/commands"
	"github.com/harper/migration-planner/internal/config"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// exitConfig marks a run that never started because the environment is wrong
const exitConfig = 2

func main() {
	commands.SetVersion(version, commit, date)

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprintln(os.Stderr, "Check your environment or .env file.")
			os.Exit(exitConfig)
		}
		os.Exit(1)
	}
}

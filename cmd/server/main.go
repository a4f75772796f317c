// ABOUTME: Standalone entry point for the HTTP API
// ABOUTME: Same as "planner serve", for images that run a single process
package main

import (
	"fmt"
	"os"

	"github.com/harper/migration-planner/cmd/planner/commands"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)

	if err := commands.NewServeCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents like Claude to generate migration plans via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/migration-planner/internal/core"
	"github.com/harper/migration-planner/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the planner as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to generate migration plans via stdio.

Tools:
  generate_migration_plan  analyze files and return Plan.md
  preview_chunks           show chunk grouping without model calls`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by Claude Desktop)
  planner mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "migration-planner": {
  #       "command": "planner",
  #       "args": ["mcp"],
  #       "env": {"OPENROUTER_API_KEY": "..."}
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	cfg, logger, pipeline, err := setup()
	if err != nil {
		return err
	}

	server := mcpserver.NewMCPServer(
		"WebMethods to Boomi Migration Planner",
		versionInfo.Version,
	)

	chunker := core.NewChunker(cfg.GroupBudgetChars, cfg.SingleDocTruncateChars)
	mcp.RegisterTools(server, pipeline, chunker, logger.WithPrefix("mcp"))

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}

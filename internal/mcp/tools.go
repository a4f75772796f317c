// ABOUTME: MCP tool definitions and registration for the migration planner
// ABOUTME: Exposes plan generation and a chunk preview over the Model Context Protocol
package mcp

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/migration-planner/internal/core"
	"github.com/harper/migration-planner/internal/models"
)

// Planner generates a migration plan for a document batch
type Planner interface {
	Run(ctx context.Context, docs []models.Document) (*core.Result, error)
}

// filesSchema is shared by every tool that takes source files
var filesSchema = map[string]interface{}{
	"type":        "array",
	"description": "webMethods source files (.html or .txt exports)",
	"items": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"filename": map[string]interface{}{
				"type":        "string",
				"description": "Original file name, e.g. OrderFlow.html",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Full UTF-8 text of the file",
			},
		},
		"required": []string{"filename", "content"},
	},
}

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, planner Planner, chunker *core.Chunker, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	handlers := &Handlers{
		planner: planner,
		chunker: chunker,
		logger:  logger,
	}

	// 1. generate_migration_plan - full pipeline, returns Plan.md markdown
	server.AddTool(mcp.Tool{
		Name:        "generate_migration_plan",
		Description: "Analyze webMethods flow service exports and generate a Boomi migration plan (Plan.md) with process inventory, shape mappings, and Boomi AI prompts.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"files": filesSchema,
			},
			Required: []string{"files"},
		},
	}, handlers.GenerateMigrationPlan)

	// 2. preview_chunks - chunking only, no backend calls
	server.AddTool(mcp.Tool{
		Name:        "preview_chunks",
		Description: "Show how files would be grouped into chunks for analysis, with size estimates. Makes no model calls.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"files": filesSchema,
			},
			Required: []string{"files"},
		},
	}, handlers.PreviewChunks)

	return handlers
}

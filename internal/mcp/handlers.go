// ABOUTME: MCP tool handler implementations for the migration planner
// ABOUTME: Validates file arguments, runs the pipeline, and reports failures as tool errors
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/migration-planner/internal/core"
	"github.com/harper/migration-planner/internal/ingest"
	"github.com/harper/migration-planner/internal/models"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	planner Planner
	chunker *core.Chunker
	logger  *log.Logger
}

// GenerateMigrationPlan handles the generate_migration_plan tool
func (h *Handlers) GenerateMigrationPlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := documentsArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := h.planner.Run(ctx, docs)
	if err != nil {
		h.logger.Error("plan generation failed", "files", len(docs), "err", err)
		return mcp.NewToolResultError(describeRunError(err)), nil
	}

	return mcp.NewToolResultText(result.Plan), nil
}

// PreviewChunks handles the preview_chunks tool
func (h *Handlers) PreviewChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := documentsArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	groups := h.chunker.Chunk(docs)
	chunks := make([]map[string]interface{}, 0, len(groups))
	for i, g := range groups {
		chars := 0
		for _, d := range g.Documents {
			chars += core.CharCount(d.Content)
		}
		chunks = append(chunks, map[string]interface{}{
			"chunk":      i + 1,
			"files":      g.Names(),
			"chars":      chars,
			"est_tokens": chars / core.CharsPerToken,
			"truncated":  g.Truncated,
		})
	}

	response := map[string]interface{}{
		"total_files":  len(docs),
		"total_chunks": len(groups),
		"chunks":       chunks,
	}

	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}

	return mcp.NewToolResultText(string(responseJSON)), nil
}

// documentsArg extracts and validates the files argument
func documentsArg(request mcp.CallToolRequest) ([]models.Document, error) {
	raw, ok := request.GetArguments()["files"]
	if !ok {
		return nil, errors.New("files argument is required")
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, errors.New("files must be an array of {filename, content} objects")
	}
	if len(items) == 0 {
		return nil, errors.New("no files provided")
	}

	docs := make([]models.Document, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("files[%d] must be an object", i)
		}
		name, _ := obj["filename"].(string)
		content, ok := obj["content"].(string)
		if !ok {
			return nil, fmt.Errorf("files[%d].content must be a string", i)
		}
		doc, err := ingest.Decode(name, []byte(content))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// describeRunError turns pipeline failures into messages an agent can act on
func describeRunError(err error) string {
	var synthErr *core.SynthesisError
	var cancelErr *core.CancelledError
	switch {
	case errors.As(err, &synthErr):
		return fmt.Sprintf("failed to combine %d plan parts: %v", synthErr.Parts, synthErr.Err)
	case errors.As(err, &cancelErr):
		return fmt.Sprintf("generation cancelled after %d of %d chunks", len(cancelErr.Completed), cancelErr.Total)
	case errors.Is(err, core.ErrNoDocuments):
		return "no files provided"
	}
	return fmt.Sprintf("plan generation failed: %v", err)
}

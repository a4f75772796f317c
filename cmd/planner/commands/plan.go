// ABOUTME: CLI command to generate a migration plan from local files
// ABOUTME: Writes Plan.md and optionally renders it in the terminal
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/harper/migration-planner/internal/core"
	"github.com/harper/migration-planner/internal/ingest"
	"github.com/harper/migration-planner/internal/models"
)

var (
	planOutput string
	planRender bool
	planStdout bool
)

// NewPlanCmd creates plan command
func NewPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [files or directories...]",
		Short: "Generate a migration plan",
		Long: `Generate a Boomi migration plan from webMethods exports.

Accepts .html and .txt files. Directories are scanned (non-recursively)
for files with those extensions. The plan is written to Plan.md unless
--output or --stdout is given.

Examples:
  planner plan OrderFlow.html InvoiceFlow.txt
  planner plan ./exports --output docs/Plan.md
  planner plan ./exports --render`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPlan,
	}

	cmd.Flags().StringVarP(&planOutput, "output", "o", "Plan.md", "Where to write the plan")
	cmd.Flags().BoolVar(&planRender, "render", false, "Render the plan as styled markdown in the terminal")
	cmd.Flags().BoolVar(&planStdout, "stdout", false, "Print the plan to stdout instead of writing a file")

	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	docs, err := collectDocuments(args)
	if err != nil {
		return err
	}

	_, logger, pipeline, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.Run(ctx, docs)
	if err != nil {
		var cancelErr *core.CancelledError
		if errors.As(err, &cancelErr) {
			return fmt.Errorf("cancelled after %d of %d chunks", len(cancelErr.Completed), cancelErr.Total)
		}
		return err
	}

	if !planStdout {
		if err := os.WriteFile(planOutput, []byte(result.Plan), 0o644); err != nil {
			return fmt.Errorf("writing plan: %w", err)
		}
		logger.Info("plan written", "path", planOutput)
	}

	out := cmd.OutOrStdout()

	if outputFormat == "json" {
		written := planOutput
		if planStdout {
			written = ""
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"run_id":        result.RunID,
			"output":        written,
			"files":         len(docs),
			"chunks":        len(result.Groups),
			"failed_chunks": result.Failed(),
			"plan":          result.Plan,
		})
	}

	switch {
	case planRender:
		rendered, err := renderMarkdown(result.Plan, glamour.WithAutoStyle())
		if err != nil {
			return fmt.Errorf("rendering plan: %w", err)
		}
		fmt.Fprint(out, rendered)
	case planStdout:
		fmt.Fprintln(out, result.Plan)
	case !quiet:
		fmt.Fprintf(out, "✓ Plan written to %s (%d files, %d chunks", planOutput, len(docs), len(result.Groups))
		if failed := result.Failed(); failed > 0 {
			fmt.Fprintf(out, ", %d failed", failed)
		}
		fmt.Fprintln(out, ")")
	}

	return nil
}

// collectDocuments loads and validates every file named by paths, expanding directories
func collectDocuments(paths []string) ([]models.Document, error) {
	var docs []models.Document

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		if !info.IsDir() {
			doc, err := ingest.ReadFile(path)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !ingest.HasAllowedExtension(entry.Name()) {
				continue
			}
			doc, err := ingest.ReadFile(filepath.Join(path, entry.Name()))
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("no .html or .txt files found")
	}
	return docs, nil
}

// renderMarkdown styles a plan for the terminal
func renderMarkdown(plan string, style glamour.TermRendererOption) (string, error) {
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(120))
	if err != nil {
		return "", err
	}
	return renderer.Render(plan)
}

// ABOUTME: CLI command to preview how files will be chunked
// ABOUTME: Runs only the chunker, so it needs no API key
package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/migration-planner/internal/core"
)

var (
	chunksBudget   int
	chunksTruncate int
)

// NewChunksCmd creates chunks command
func NewChunksCmd() *cobra.Command {
	defaults := core.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "chunks [files or directories...]",
		Short: "Preview chunk grouping without calling the model",
		Long: `Show how files will be grouped into chunks for analysis.

Each chunk becomes one model call. Files larger than the budget are
truncated and analyzed alone. Defaults come from GROUP_BUDGET_CHARS and
SINGLE_DOC_TRUNCATE_CHARS, the same settings 'planner plan' uses.

Examples:
  planner chunks ./exports
  planner chunks ./exports --budget 20000
  planner chunks ./exports --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: runChunks,
	}

	cmd.Flags().IntVar(&chunksBudget, "budget", defaults.GroupBudgetChars, "Characters per chunk")
	cmd.Flags().IntVar(&chunksTruncate, "truncate", defaults.SingleDocTruncateChars, "Maximum characters kept from an oversized file")

	return cmd
}

func runChunks(cmd *cobra.Command, args []string) error {
	cfg, err := loadOfflineConfig()
	if err != nil {
		return err
	}

	budget, truncateChars := chunksBudget, chunksTruncate
	if !cmd.Flags().Changed("budget") {
		budget = cfg.GroupBudgetChars
	}
	if !cmd.Flags().Changed("truncate") {
		truncateChars = cfg.SingleDocTruncateChars
	}
	if err := validatePositiveInt(budget, "budget"); err != nil {
		return err
	}

	docs, err := collectDocuments(args)
	if err != nil {
		return err
	}

	groups := core.NewChunker(budget, truncateChars).Chunk(docs)
	out := cmd.OutOrStdout()

	if outputFormat == "json" {
		type chunkJSON struct {
			Chunk     int      `json:"chunk"`
			Files     []string `json:"files"`
			Chars     int      `json:"chars"`
			EstTokens int      `json:"est_tokens"`
			Truncated bool     `json:"truncated"`
		}
		chunks := make([]chunkJSON, len(groups))
		for i, g := range groups {
			chars := groupChars(g.Documents)
			chunks[i] = chunkJSON{Chunk: i + 1, Files: g.Names(), Chars: chars, EstTokens: chars / core.CharsPerToken, Truncated: g.Truncated}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(chunks)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHUNK\tFILES\tCHARS\t~TOKENS\tNOTE")
	for i, g := range groups {
		chars := groupChars(g.Documents)
		note := ""
		if g.Truncated {
			note = "truncated"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", i+1, truncate(strings.Join(g.Names(), ", "), 60), chars, chars/core.CharsPerToken, note)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(out, "\n%d files in %d chunks\n", len(docs), len(groups))
	}
	return nil
}

// ABOUTME: Runner executes plan scenarios through a planner and collects scored results
// ABOUTME: Results can be exported as JSON for tracking prompt changes over time

package planeval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harper/migration-planner/internal/core"
	"github.com/harper/migration-planner/internal/models"
)

// Planner generates a migration plan for a document batch
type Planner interface {
	Run(ctx context.Context, docs []models.Document) (*core.Result, error)
}

// Runner executes scenarios
type Runner struct {
	planner Planner
	metrics *MetricsCalculator
	out     io.Writer
	verbose bool
}

// NewRunner creates a runner; progress goes to out when verbose
func NewRunner(planner Planner, out io.Writer, verbose bool) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{
		planner: planner,
		metrics: NewMetricsCalculator(),
		out:     out,
		verbose: verbose,
	}
}

// RunScenario generates a plan for one scenario and scores it.
// A pipeline failure is reported as a FAIL result, not an error.
func (r *Runner) RunScenario(ctx context.Context, scenario Scenario) ScenarioResult {
	if r.verbose {
		fmt.Fprintf(r.out, "\n========================================\n")
		fmt.Fprintf(r.out, "RUNNING: %s\n", scenario.Name)
		fmt.Fprintf(r.out, "========================================\n")
		fmt.Fprintf(r.out, "Description: %s\n", scenario.Description)
		fmt.Fprintf(r.out, "Files: %d\n\n", len(scenario.Files))
	}

	start := time.Now()
	result, err := r.planner.Run(ctx, scenario.Files)
	if err != nil {
		return ScenarioResult{
			ScenarioID:   scenario.ID,
			ScenarioName: scenario.Name,
			Status:       "FAIL",
			ErrorMessage: err.Error(),
		}
	}

	scored := r.metrics.EvaluateScenario(scenario, result.Plan)
	scored.Details["run_id"] = result.RunID
	scored.Details["chunks"] = len(result.Groups)
	scored.Details["duration_ms"] = time.Since(start).Milliseconds()

	if r.verbose {
		fmt.Fprintf(r.out, "Faithfulness: %.2f (%s)\n", scored.FaithfulnessScore, scored.Details["faithfulness_detail"])
		fmt.Fprintf(r.out, "Coverage:     %.2f (%s)\n", scored.CoverageScore, scored.Details["coverage_detail"])
		fmt.Fprintf(r.out, "Status:       %s\n", scored.Status)
	}

	return scored
}

// RunAll runs scenarios in order, stopping early only if ctx is cancelled
func (r *Runner) RunAll(ctx context.Context, scenarios []Scenario) []ScenarioResult {
	results := make([]ScenarioResult, 0, len(scenarios))
	for _, s := range scenarios {
		if ctx.Err() != nil {
			break
		}
		results = append(results, r.RunScenario(ctx, s))
	}
	return results
}

// ExportResults writes results as indented JSON
func (r *Runner) ExportResults(results []ScenarioResult, path string) error {
	passed := 0
	for _, res := range results {
		if res.Status == "PASS" {
			passed++
		}
	}

	report := map[string]interface{}{
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"total":        len(results),
		"passed":       passed,
		"failed":       len(results) - passed,
		"results":      results,
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

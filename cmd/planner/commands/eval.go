// ABOUTME: Eval command runs plan-quality scenarios against the configured model
// ABOUTME: Used to compare prompt templates and models before rolling them out
package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/migration-planner/benchmarks/planeval"
)

var (
	evalScenario string
	evalOutput   string
)

// NewEvalCmd creates the eval command
func NewEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score generated plans against reference scenarios",
		Long: `Run built-in webMethods scenarios through the full pipeline and score
each plan for required Boomi concepts, forbidden content, and process
coverage. Makes real model calls.

Scenarios: branch-map, adapters, multi-service`,
		RunE: runEval,
		Example: `  planner eval
  planner eval --scenario adapters --output results.json
  PROMPT_FILE=prompts/v2.yaml planner eval`,
	}

	cmd.Flags().StringVar(&evalScenario, "scenario", "", "Run a single scenario by id")
	cmd.Flags().StringVar(&evalOutput, "output", "benchmark_results.json", "Output path for JSON results")

	return cmd
}

func runEval(cmd *cobra.Command, args []string) error {
	scenarios := planeval.AllScenarios()
	if evalScenario != "" {
		s, ok := planeval.ScenarioByID(evalScenario)
		if !ok {
			return fmt.Errorf("unknown scenario: %s", evalScenario)
		}
		scenarios = []planeval.Scenario{s}
	}

	_, _, pipeline, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	runner := planeval.NewRunner(pipeline, out, verbose)
	results := runner.RunAll(ctx, scenarios)

	fmt.Fprintln(out, "\n========================================")
	fmt.Fprintln(out, "EVAL SUMMARY")
	fmt.Fprintln(out, "========================================")

	failed := 0
	for _, r := range results {
		fmt.Fprintf(out, "\n%s: %s\n", r.ScenarioID, r.ScenarioName)
		if r.ErrorMessage != "" {
			fmt.Fprintf(out, "  Error: %s\n", r.ErrorMessage)
		} else {
			fmt.Fprintf(out, "  Faithfulness: %.2f\n", r.FaithfulnessScore)
			fmt.Fprintf(out, "  Coverage:     %.2f\n", r.CoverageScore)
		}
		fmt.Fprintf(out, "  Status: %s\n", r.Status)
		if r.Status != "PASS" {
			failed++
		}
	}

	if err := runner.ExportResults(results, evalOutput); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nResults written to %s\n", evalOutput)

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
	}
	return nil
}

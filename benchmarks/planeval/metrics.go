// ABOUTME: Deterministic scoring of generated plans against scenario ground truth
// ABOUTME: Faithfulness checks required and forbidden terms, coverage checks process names

package planeval

import (
	"fmt"
	"strings"

	"github.com/harper/migration-planner/internal/models"
)

// PassThreshold is the minimum score on both metrics for a PASS
const PassThreshold = 0.9

// MetricsCalculator computes scores for plan scenarios
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateFaithfulness computes faithfulness score (0.0-1.0)
func (m *MetricsCalculator) CalculateFaithfulness(plan string, expected, forbidden []string) (float64, string) {
	planUpper := strings.ToUpper(plan)

	missing := []string{}
	for _, item := range expected {
		if !strings.Contains(planUpper, strings.ToUpper(item)) {
			missing = append(missing, item)
		}
	}

	found := []string{}
	for _, item := range forbidden {
		if strings.Contains(planUpper, strings.ToUpper(item)) {
			found = append(found, item)
		}
	}

	switch {
	case len(missing) == 0 && len(found) == 0:
		return 1.0, "All expected terms present, no forbidden terms"
	case len(missing) > 0 && len(found) > 0:
		return 0.0, fmt.Sprintf("missing expected terms: %v, forbidden terms found: %v", missing, found)
	case len(missing) > 0:
		return 0.5, fmt.Sprintf("missing expected terms: %v", missing)
	}
	return 0.5, fmt.Sprintf("forbidden terms found: %v", found)
}

// CalculateCoverage is the fraction of expected processes the plan mentions
func (m *MetricsCalculator) CalculateCoverage(plan string, processes []string) (float64, string) {
	if len(processes) == 0 {
		return 1.0, "No processes required"
	}

	planUpper := strings.ToUpper(plan)
	foundCount := 0
	missing := []string{}
	for _, p := range processes {
		if strings.Contains(planUpper, strings.ToUpper(p)) {
			foundCount++
		} else {
			missing = append(missing, p)
		}
	}

	coverage := float64(foundCount) / float64(len(processes))
	if coverage == 1.0 {
		return 1.0, "All processes covered"
	}
	return coverage, fmt.Sprintf("partial coverage (%.2f) - missing processes: %v", coverage, missing)
}

// CheckStructure verifies the plan carries the standard title as its first line
func (m *MetricsCalculator) CheckStructure(plan string) (bool, string) {
	if models.EnsureTitle(plan) != plan {
		return false, "plan does not start with the standard title"
	}
	return true, "plan title present"
}

// EvaluateScenario scores one generated plan
func (m *MetricsCalculator) EvaluateScenario(scenario Scenario, plan string) ScenarioResult {
	faithfulness, faithfulnessDetail := m.CalculateFaithfulness(plan,
		scenario.GroundTruth.ExpectedInPlan, scenario.GroundTruth.ForbiddenInPlan)
	coverage, coverageDetail := m.CalculateCoverage(plan, scenario.GroundTruth.ExpectedProcesses)
	structured, structureDetail := m.CheckStructure(plan)

	status := "FAIL"
	if structured && faithfulness >= PassThreshold && coverage >= PassThreshold {
		status = "PASS"
	}

	return ScenarioResult{
		ScenarioID:        scenario.ID,
		ScenarioName:      scenario.Name,
		FaithfulnessScore: faithfulness,
		CoverageScore:     coverage,
		OverallScore:      (faithfulness + coverage) / 2.0,
		Status:            status,
		Details: map[string]interface{}{
			"faithfulness_detail": faithfulnessDetail,
			"coverage_detail":     coverageDetail,
			"structure_detail":    structureDetail,
			"plan_preview":        preview(plan, 200),
			"plan_chars":          len([]rune(plan)),
		},
	}
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

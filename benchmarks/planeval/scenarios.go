// ABOUTME: Evaluation scenarios for generated migration plans
// ABOUTME: Each scenario pairs webMethods fixtures with the Boomi concepts a good plan must name

package planeval

import "github.com/harper/migration-planner/internal/models"

// Scenario is one end-to-end plan generation check
type Scenario struct {
	ID          string
	Name        string
	Description string
	Files       []models.Document
	GroundTruth GroundTruth
}

// GroundTruth defines what the generated plan must and must not contain
type GroundTruth struct {
	ExpectedInPlan  []string // Strings that MUST appear in the plan
	ForbiddenInPlan []string // Strings that MUST NOT appear in the plan

	// Processes that must each be mentioned by name
	ExpectedProcesses []string
}

// ScenarioResult is the outcome of one scenario
type ScenarioResult struct {
	ScenarioID        string                 `json:"scenario_id"`
	ScenarioName      string                 `json:"scenario_name"`
	FaithfulnessScore float64                `json:"faithfulness_score"`
	CoverageScore     float64                `json:"coverage_score"`
	OverallScore      float64                `json:"overall_score"`
	Status            string                 `json:"status"` // "PASS" or "FAIL"
	Details           map[string]interface{} `json:"details"`
	ErrorMessage      string                 `json:"error_message,omitempty"`
}

// BranchAndMap is a single flow service using BRANCH and MAP steps
func BranchAndMap() Scenario {
	return Scenario{
		ID:          "branch-map",
		Name:        "Branching flow with mappings",
		Description: "A flow service that branches on order status and maps the order document",
		Files: []models.Document{{
			Name: "ProcessOrder.txt",
			Content: `Flow Service: orders.flows:ProcessOrder
Input: OrderDocument (document type orders.docs:Order)
Steps:
  BRANCH on /OrderDocument/status
    NEW:       MAP OrderDocument -> ErpOrder (set ErpOrder/type = "SO")
    CANCELLED: INVOKE orders.flows:CancelOrder
    $default:  INVOKE pub.flow:debugLog (message = "unknown status")
  INVOKE orders.adapters:InsertErpOrder
Output: ErpOrder`,
		}},
		GroundTruth: GroundTruth{
			ExpectedInPlan:    []string{"Decision", "Map"},
			ForbiddenInPlan:   []string{"Error processing chunk"},
			ExpectedProcesses: []string{"ProcessOrder"},
		},
	}
}

// AdapterServices covers JDBC adapter calls and logging
func AdapterServices() Scenario {
	return Scenario{
		ID:          "adapters",
		Name:        "Adapter services and logging",
		Description: "JDBC select and insert adapter services wrapped in try/catch with debug logging",
		Files: []models.Document{{
			Name: "SyncCustomers.html",
			Content: `<html><body>
<h1>customers.flows:SyncCustomers</h1>
<ul>
<li>SEQUENCE (exit on failure) - try
  <ul>
  <li>INVOKE customers.adapters.jdbc:SelectChangedCustomers</li>
  <li>LOOP over /results
    <ul><li>INVOKE customers.adapters.jdbc:UpsertCustomer</li></ul>
  </li>
  </ul>
</li>
<li>SEQUENCE (exit on done) - catch
  <ul>
  <li>INVOKE pub.flow:getLastError</li>
  <li>INVOKE pub.flow:debugLog</li>
  </ul>
</li>
</ul>
</body></html>`,
		}},
		GroundTruth: GroundTruth{
			ExpectedInPlan:    []string{"Database", "Try/Catch", "Notify"},
			ForbiddenInPlan:   []string{"Error processing chunk"},
			ExpectedProcesses: []string{"SyncCustomers"},
		},
	}
}

// MultiService uploads several related services that must all survive synthesis
func MultiService() Scenario {
	return Scenario{
		ID:          "multi-service",
		Name:        "Several services in one plan",
		Description: "Three small services; every one must appear in the combined plan",
		Files: []models.Document{
			{Name: "ReceiveInvoice.txt", Content: "Flow Service: invoices.flows:ReceiveInvoice\nINVOKE pub.client:http (GET /invoices)\nINVOKE invoices.flows:ValidateInvoice"},
			{Name: "ValidateInvoice.txt", Content: "Flow Service: invoices.flows:ValidateInvoice\nBRANCH on /invoice/total\n  >1000: INVOKE invoices.flows:RequestApproval\n  $default: MAP invoice -> approvedInvoice"},
			{Name: "PublishInvoice.txt", Content: "Flow Service: invoices.flows:PublishInvoice\nINVOKE pub.jms:send (destination = invoices.approved)"},
		},
		GroundTruth: GroundTruth{
			ExpectedInPlan:    []string{"Boomi"},
			ForbiddenInPlan:   []string{"Error processing chunk"},
			ExpectedProcesses: []string{"ReceiveInvoice", "ValidateInvoice", "PublishInvoice"},
		},
	}
}

// AllScenarios returns every scenario in run order
func AllScenarios() []Scenario {
	return []Scenario{BranchAndMap(), AdapterServices(), MultiService()}
}

// ScenarioByID looks up a scenario
func ScenarioByID(id string) (Scenario, bool) {
	for _, s := range AllScenarios() {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

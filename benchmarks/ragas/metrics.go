// ABOUTME: RAGAS-style metrics for faithfulness, context recall, and escalation outcome
// ABOUTME: Simplified deterministic evaluation based on ground truth comparison

package ragas

import (
	"fmt"
	"strings"
)

// Status values for a TestResult
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// passThreshold is the minimum score every metric needs for a PASS
const passThreshold = 0.9

// Observation is what the runner saw for the final query turn
type Observation struct {
	Response string
	Context  []string
	Outcome  string
	Charts   int
}

// MetricsCalculator computes scores for benchmark tests
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateFaithfulness computes faithfulness score (0.0-1.0)
// Faithfulness = Does the response state what the knowledge base says and nothing it doesn't?
func (m *MetricsCalculator) CalculateFaithfulness(
	response string,
	expectedInResponse []string,
	forbiddenInResponse []string,
) (float64, string) {
	responseUpper := strings.ToUpper(response)

	missingItems := []string{}
	for _, expected := range expectedInResponse {
		if !strings.Contains(responseUpper, strings.ToUpper(expected)) {
			missingItems = append(missingItems, expected)
		}
	}

	forbiddenFound := []string{}
	for _, forbidden := range forbiddenInResponse {
		if strings.Contains(responseUpper, strings.ToUpper(forbidden)) {
			forbiddenFound = append(forbiddenFound, forbidden)
		}
	}

	switch {
	case len(missingItems) == 0 && len(forbiddenFound) == 0:
		return 1.0, "Perfect faithfulness - response matches expected ground truth"
	case len(missingItems) > 0 && len(forbiddenFound) > 0:
		return 0.0, fmt.Sprintf(
			"Faithfulness failure - missing expected items: %v, forbidden items found: %v",
			missingItems, forbiddenFound,
		)
	case len(missingItems) > 0:
		return 0.5, fmt.Sprintf("Partial faithfulness - missing expected items: %v", missingItems)
	default:
		return 0.5, fmt.Sprintf("Partial faithfulness - forbidden items found: %v", forbiddenFound)
	}
}

// CalculateContextRecall computes context recall score (0.0-1.0)
// Context Recall = Did retrieval surface the knowledge chunks the answer needs?
func (m *MetricsCalculator) CalculateContextRecall(
	retrievedContext []string,
	expectedContextItems []string,
) (float64, string) {
	if len(expectedContextItems) == 0 {
		return 1.0, "No context retrieval required"
	}

	allContext := strings.ToUpper(strings.Join(retrievedContext, " "))

	foundCount := 0
	missingItems := []string{}
	for _, expectedItem := range expectedContextItems {
		if strings.Contains(allContext, strings.ToUpper(expectedItem)) {
			foundCount++
		} else {
			missingItems = append(missingItems, expectedItem)
		}
	}

	recall := float64(foundCount) / float64(len(expectedContextItems))
	if recall == 1.0 {
		return 1.0, "Perfect context recall - all expected items retrieved"
	}
	return recall, fmt.Sprintf("Partial context recall (%.2f) - missing items: %v", recall, missingItems)
}

// CalculateOutcome scores whether the bot answered or escalated as expected.
// A missing chart halves an otherwise correct outcome.
func (m *MetricsCalculator) CalculateOutcome(expected, actual string, expectChart bool, charts int) (float64, string) {
	if expected == "" {
		expected = OutcomeAnswer
	}
	if actual != expected {
		return 0.0, fmt.Sprintf("Outcome mismatch - expected %s, got %s", expected, actual)
	}
	if expectChart && charts == 0 {
		return 0.5, "Correct outcome but no chart was attached"
	}
	return 1.0, fmt.Sprintf("Correct outcome (%s)", actual)
}

// EvaluateTest runs the full evaluation for a test
func (m *MetricsCalculator) EvaluateTest(scenario TestScenario, obs Observation) TestResult {
	gt := scenario.GroundTruth

	faithfulness, faithfulnessDetail := m.CalculateFaithfulness(obs.Response, gt.ExpectedInResponse, gt.ForbiddenInResponse)
	recall, recallDetail := m.CalculateContextRecall(obs.Context, gt.ExpectedContextItems)
	outcome, outcomeDetail := m.CalculateOutcome(gt.ExpectedOutcome, obs.Outcome, gt.ExpectChart, obs.Charts)

	status := StatusFail
	if faithfulness >= passThreshold && recall >= passThreshold && outcome >= passThreshold {
		status = StatusPass
	}

	return TestResult{
		TestID:             scenario.ID,
		TestName:           scenario.Name,
		FaithfulnessScore:  faithfulness,
		ContextRecallScore: recall,
		OutcomeScore:       outcome,
		OverallScore:       (faithfulness + recall + outcome) / 3.0,
		Status:             status,
		Details: map[string]any{
			"faithfulness_detail": faithfulnessDetail,
			"recall_detail":       recallDetail,
			"outcome_detail":      outcomeDetail,
			"final_response":      preview(obs.Response, 200),
			"context_items":       len(obs.Context),
			"charts":              obs.Charts,
		},
	}
}

// preview truncates s to at most n runes
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

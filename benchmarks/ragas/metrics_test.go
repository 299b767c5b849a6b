// ABOUTME: Tests for benchmark metrics
// ABOUTME: Covers faithfulness, recall, outcome scoring, and pass/fail status

package ragas

import (
	"strings"
	"testing"
)

func TestCalculateFaithfulness(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name      string
		response  string
		expected  []string
		forbidden []string
		want      float64
	}{
		{"all present", "Tap Check In and scan the barcode", []string{"check in", "BARCODE"}, nil, 1.0},
		{"missing item", "Tap Check In", []string{"Check In", "barcode"}, nil, 0.5},
		{"forbidden found", "Reset the validator PIN", nil, []string{"validator"}, 0.5},
		{"both failures", "Reset the validator PIN", []string{"barcode"}, []string{"validator"}, 0.0},
		{"nothing required", "anything", nil, nil, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detail := m.CalculateFaithfulness(tt.response, tt.expected, tt.forbidden)
			if got != tt.want {
				t.Errorf("score = %v, want %v (%s)", got, tt.want, detail)
			}
		})
	}
}

func TestCalculateContextRecall(t *testing.T) {
	m := NewMetricsCalculator()

	ctx := []string{"Scan the trailer barcode on the nose", "Tap Enter Manually if damaged"}

	if got, _ := m.CalculateContextRecall(ctx, nil); got != 1.0 {
		t.Errorf("no expectations = %v, want 1", got)
	}
	if got, _ := m.CalculateContextRecall(ctx, []string{"scan the trailer barcode", "enter manually"}); got != 1.0 {
		t.Errorf("full recall = %v, want 1", got)
	}
	got, detail := m.CalculateContextRecall(ctx, []string{"enter manually", "seal number"})
	if got != 0.5 {
		t.Errorf("partial recall = %v, want 0.5", got)
	}
	if !strings.Contains(detail, "seal number") {
		t.Errorf("detail %q should name the missing item", detail)
	}
}

func TestCalculateOutcome(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name        string
		expected    string
		actual      string
		expectChart bool
		charts      int
		want        float64
	}{
		{"empty means answer", "", OutcomeAnswer, false, 0, 1.0},
		{"matching escalation", OutcomeNoAnswer, OutcomeNoAnswer, false, 0, 1.0},
		{"answered instead of escalating", OutcomeNoAnswer, OutcomeAnswer, false, 0, 0.0},
		{"wrong escalation reason", OutcomeNeedSupport, OutcomeNoAnswer, false, 0, 0.0},
		{"chart present", OutcomeAnswer, OutcomeAnswer, true, 1, 1.0},
		{"chart missing", OutcomeAnswer, OutcomeAnswer, true, 0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detail := m.CalculateOutcome(tt.expected, tt.actual, tt.expectChart, tt.charts)
			if got != tt.want {
				t.Errorf("score = %v, want %v (%s)", got, tt.want, detail)
			}
		})
	}
}

func TestEvaluateTest(t *testing.T) {
	m := NewMetricsCalculator()
	scenario := GetTestCheckIn()

	pass := m.EvaluateTest(scenario, Observation{
		Response: "Open the yard app, tap Check In and scan the barcode.",
		Context:  []string{"Scan the trailer barcode on the nose. If damaged tap Enter Manually."},
		Outcome:  OutcomeAnswer,
	})
	if pass.Status != StatusPass || !pass.Passed() {
		t.Errorf("status = %s, want PASS: %+v", pass.Status, pass.Details)
	}
	if pass.OverallScore != 1.0 {
		t.Errorf("overall = %v, want 1", pass.OverallScore)
	}
	if pass.TestID != "checkin" || pass.TestName != "Trailer Check In" {
		t.Errorf("identity = %s/%s", pass.TestID, pass.TestName)
	}

	fail := m.EvaluateTest(scenario, Observation{
		Response: "I'll notify our support team.",
		Outcome:  OutcomeNoAnswer,
	})
	if fail.Status != StatusFail {
		t.Errorf("status = %s, want FAIL", fail.Status)
	}
	if fail.OutcomeScore != 0 || fail.ContextRecallScore != 0 {
		t.Errorf("outcome/recall = %v/%v, want 0/0", fail.OutcomeScore, fail.ContextRecallScore)
	}
}

func TestPreview(t *testing.T) {
	if got := preview("héllo wörld", 5); got != "héllo" {
		t.Errorf("preview = %q", got)
	}
	if got := preview("short", 10); got != "short" {
		t.Errorf("preview = %q", got)
	}
}

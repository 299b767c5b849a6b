// ABOUTME: Scenario data structures for support answer benchmarks
// ABOUTME: Defines conversation turns, expected outcomes, and ground truth against the sample knowledge base

package ragas

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Outcomes a scenario can expect for its final turn
const (
	OutcomeAnswer      = "answer"
	OutcomeNoAnswer    = "no_answer"
	OutcomeNeedSupport = "need_support"
	OutcomeError       = "error"
)

// TestScenario represents a complete benchmark test
type TestScenario struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	UserName    string             `yaml:"user_name"`
	Turns       []ConversationTurn `yaml:"turns"`
	GroundTruth GroundTruth        `yaml:"ground_truth"`
}

// ConversationTurn represents a single user message in a test conversation
type ConversationTurn struct {
	TurnNumber  int    `yaml:"turn"`
	UserMessage string `yaml:"message"`
}

// GroundTruth defines expected outcomes for the final query turn
type GroundTruth struct {
	FinalQueryTurn      int      `yaml:"final_query_turn"`
	ExpectedInResponse  []string `yaml:"expected_in_response"`
	ForbiddenInResponse []string `yaml:"forbidden_in_response"`

	// Knowledge snippets the retriever should surface for the final query
	ExpectedContextItems []string `yaml:"expected_context_items"`

	// ExpectedOutcome is answer, no_answer, need_support, or error; empty means answer
	ExpectedOutcome string `yaml:"expected_outcome"`

	// ExpectChart requires an image attachment on the final reply
	ExpectChart bool `yaml:"expect_chart"`
}

// TestResult represents the outcome of a benchmark test
type TestResult struct {
	TestID             string         `json:"test_id"`
	TestName           string         `json:"test_name"`
	FaithfulnessScore  float64        `json:"faithfulness_score"`
	ContextRecallScore float64        `json:"context_recall_score"`
	OutcomeScore       float64        `json:"outcome_score"`
	OverallScore       float64        `json:"overall_score"`
	Status             string         `json:"status"`
	Details            map[string]any `json:"details,omitempty"`
	ErrorMessage       string         `json:"error_message,omitempty"`
}

// Passed reports whether the result cleared the pass threshold
func (r TestResult) Passed() bool {
	return r.Status == StatusPass
}

// Validate checks a scenario is runnable
func (s TestScenario) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("scenario has no id")
	}
	if len(s.Turns) == 0 {
		return fmt.Errorf("scenario %s has no turns", s.ID)
	}
	final := s.GroundTruth.FinalQueryTurn
	if final < 1 || final > len(s.Turns) {
		return fmt.Errorf("scenario %s: final_query_turn %d out of range 1..%d", s.ID, final, len(s.Turns))
	}
	switch s.GroundTruth.outcome() {
	case OutcomeAnswer, OutcomeNoAnswer, OutcomeNeedSupport, OutcomeError:
	default:
		return fmt.Errorf("scenario %s: unknown expected_outcome %q", s.ID, s.GroundTruth.ExpectedOutcome)
	}
	return nil
}

func (g GroundTruth) outcome() string {
	if g.ExpectedOutcome == "" {
		return OutcomeAnswer
	}
	return g.ExpectedOutcome
}

// GetTestCheckIn returns a single-turn how-to question answered from the knowledge base
func GetTestCheckIn() TestScenario {
	return TestScenario{
		ID:          "checkin",
		Name:        "Trailer Check In",
		Description: "A driver asks how to check in a trailer; the answer must come from the check in section",
		Turns: []ConversationTurn{
			{TurnNumber: 1, UserMessage: "How do I check in a trailer in the yard app?"},
		},
		GroundTruth: GroundTruth{
			FinalQueryTurn:       1,
			ExpectedInResponse:   []string{"Check In", "barcode"},
			ForbiddenInResponse:  []string{"Validator"},
			ExpectedContextItems: []string{"scan the trailer barcode", "Enter Manually"},
		},
	}
}

// GetTestFollowUp returns a two-turn conversation where the second question relies on the first
func GetTestFollowUp() TestScenario {
	return TestScenario{
		ID:          "followup",
		Name:        "Validator PIN Follow Up",
		Description: "The user asks about resetting a validator PIN, then asks what happens after lockout",
		Turns: []ConversationTurn{
			{TurnNumber: 1, UserMessage: "How do I reset a validator PIN?"},
			{TurnNumber: 2, UserMessage: "And if the validator PIN is locked after wrong attempts?"},
		},
		GroundTruth: GroundTruth{
			FinalQueryTurn:       2,
			ExpectedInResponse:   []string{"fifteen minutes"},
			ExpectedContextItems: []string{"five wrong attempts"},
		},
	}
}

// GetTestOffTopic returns a question the knowledge base cannot answer
func GetTestOffTopic() TestScenario {
	return TestScenario{
		ID:          "offtopic",
		Name:        "Unknown Topic Escalation",
		Description: "A question outside the knowledge base must escalate instead of inventing an answer",
		Turns: []ConversationTurn{
			{TurnNumber: 1, UserMessage: "How do I configure payroll exports to SAP?"},
		},
		GroundTruth: GroundTruth{
			FinalQueryTurn:      1,
			ForbiddenInResponse: []string{"SAP export menu"},
			ExpectedOutcome:     OutcomeNoAnswer,
		},
	}
}

// GetTestHuman returns a request for a person
func GetTestHuman() TestScenario {
	return TestScenario{
		ID:          "human",
		Name:        "Support Team Request",
		Description: "The user explicitly asks for a person after a failed check out",
		Turns: []ConversationTurn{
			{TurnNumber: 1, UserMessage: "Check out is blocked because the seals differ, can someone from the support team help me?"},
		},
		GroundTruth: GroundTruth{
			FinalQueryTurn:  1,
			ExpectedOutcome: OutcomeNeedSupport,
		},
	}
}

// GetTestDetentionChart returns a data question that should produce a chart
func GetTestDetentionChart() TestScenario {
	return TestScenario{
		ID:          "chart",
		Name:        "Detention Cost Chart",
		Description: "The user asks for detention cost by carrier as a bar chart",
		Turns: []ConversationTurn{
			{TurnNumber: 1, UserMessage: "Show me a bar chart of detention cost by carrier for March"},
		},
		GroundTruth: GroundTruth{
			FinalQueryTurn:       1,
			ExpectedInResponse:   []string{"Papers Transportation", "740"},
			ExpectedContextItems: []string{"Papers Transportation: $740", "Legend Transport: $380"},
			ExpectChart:          true,
		},
	}
}

// GetAllTests returns the built-in scenarios
func GetAllTests() []TestScenario {
	return []TestScenario{
		GetTestCheckIn(),
		GetTestFollowUp(),
		GetTestOffTopic(),
		GetTestHuman(),
		GetTestDetentionChart(),
	}
}

// scenarioFile is the YAML layout for custom scenarios
type scenarioFile struct {
	Scenarios []TestScenario `yaml:"scenarios"`
}

// LoadScenarios reads and validates scenarios from a YAML file
func LoadScenarios(path string) ([]TestScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenarios: %w", err)
	}
	return ParseScenarios(data)
}

// ParseScenarios decodes YAML scenarios. Turn numbers default to their position.
func ParseScenarios(data []byte) ([]TestScenario, error) {
	var file scenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing scenarios: %w", err)
	}
	if len(file.Scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios defined")
	}

	seen := make(map[string]bool, len(file.Scenarios))
	for i := range file.Scenarios {
		s := &file.Scenarios[i]
		for j := range s.Turns {
			if s.Turns[j].TurnNumber == 0 {
				s.Turns[j].TurnNumber = j + 1
			}
		}
		if s.GroundTruth.FinalQueryTurn == 0 {
			s.GroundTruth.FinalQueryTurn = len(s.Turns)
		}
		if s.Name == "" {
			s.Name = s.ID
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate scenario id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return file.Scenarios, nil
}

// ABOUTME: Test runner for support benchmarks - executes scenarios and collects results
// ABOUTME: Drives a fresh orchestrator per scenario, captures replies, retrieval, and escalations

package ragas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harper/supportbot/internal/core"
	"github.com/harper/supportbot/internal/models"
	"github.com/harper/supportbot/internal/storage/sqlite"
)

// defaultBenchmarkUser is the sender when a scenario names none
const defaultBenchmarkUser = "Benchmark User"

// Options configure how each scenario's orchestrator is built
type Options struct {
	Orchestrator core.OrchestratorConfig
	// Model is used for intent, language, summary, and graph calls
	Model string
	// Renderer enables chart attachments; nil disables them
	Renderer core.ChartRenderer
	Verbose  bool
	// Out receives verbose progress; nil means stdout
	Out io.Writer
}

// BenchmarkRunner executes benchmark scenarios
type BenchmarkRunner struct {
	llm       core.ChatCompleter
	knowledge *core.KnowledgeBase
	opts      Options
	metrics   *MetricsCalculator
	logger    *slog.Logger
	out       io.Writer
}

// NewBenchmarkRunner creates a runner over a completion client and knowledge base
func NewBenchmarkRunner(llm core.ChatCompleter, kb *core.KnowledgeBase, opts Options, logger *slog.Logger) (*BenchmarkRunner, error) {
	if llm == nil {
		return nil, fmt.Errorf("benchmark runner: completion client is required")
	}
	if kb == nil {
		return nil, fmt.Errorf("benchmark runner: knowledge base is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Orchestrator.MaxChunks <= 0 {
		opts.Orchestrator.MaxChunks = core.DefaultMaxChunks
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	return &BenchmarkRunner{
		llm:       llm,
		knowledge: kb,
		opts:      opts,
		metrics:   NewMetricsCalculator(),
		logger:    logger.With("component", "benchmark"),
		out:       out,
	}, nil
}

// session is the per-scenario wiring; nothing is shared between scenarios
type session struct {
	orch      *core.Orchestrator
	collector *core.Collector
	archive   *sqlite.Archive
}

func (r *BenchmarkRunner) newSession() (*session, error) {
	archive, err := sqlite.NewArchiveInMemory(r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create test archive: %w", err)
	}

	params := models.ModelParams{Model: r.opts.Model}
	collector := core.NewCollector()
	deps := core.Dependencies{
		LLM:       r.llm,
		Knowledge: r.knowledge,
		Store:     core.NewConversationStore(core.DefaultRetentionCount, time.Hour, r.logger),
		Compactor: core.NewContextCompactor(r.llm, r.opts.Model, 0, r.logger),
		Intents:   core.NewIntentClassifier(r.llm, params, r.logger),
		Language:  core.NewLanguagePipeline(r.llm, params, params, r.logger),
		Graphs:    core.NewGraphAugmenter(r.llm, r.opts.Model, r.opts.Renderer, r.logger),
		Transport: collector,
		Recorder:  archive,
	}

	orch, err := core.NewOrchestrator(r.opts.Orchestrator, deps, r.logger)
	if err != nil {
		_ = archive.Close()
		return nil, err
	}
	return &session{orch: orch, collector: collector, archive: archive}, nil
}

// RunTest executes a single benchmark scenario
func (r *BenchmarkRunner) RunTest(ctx context.Context, scenario TestScenario) (TestResult, error) {
	if err := scenario.Validate(); err != nil {
		return TestResult{}, err
	}

	if r.opts.Verbose {
		fmt.Fprintf(r.out, "\n========================================\n")
		fmt.Fprintf(r.out, "RUNNING: %s\n", scenario.Name)
		fmt.Fprintf(r.out, "========================================\n")
		fmt.Fprintf(r.out, "Description: %s\n\n", scenario.Description)
	}

	s, err := r.newSession()
	if err != nil {
		return TestResult{}, err
	}
	defer func() { _ = s.archive.Close() }()

	user := scenario.UserName
	if user == "" {
		user = defaultBenchmarkUser
	}
	conversationID := fmt.Sprintf("bench-%s-%s", scenario.ID, uuid.NewString()[:8])

	var final Observation
	for _, turn := range scenario.Turns {
		if r.opts.Verbose {
			fmt.Fprintf(r.out, "[Turn %d] User: %s\n", turn.TurnNumber, turn.UserMessage)
		}

		obs, err := r.processTurn(ctx, s, conversationID, user, turn.UserMessage)
		if err != nil {
			return TestResult{}, fmt.Errorf("turn %d failed: %w", turn.TurnNumber, err)
		}

		if r.opts.Verbose {
			fmt.Fprintf(r.out, "[Turn %d] Bot (%s): %s\n\n", turn.TurnNumber, obs.Outcome, preview(obs.Response, 150))
		}

		if turn.TurnNumber == scenario.GroundTruth.FinalQueryTurn {
			final = obs
		}
	}

	result := r.metrics.EvaluateTest(scenario, final)
	r.logger.Info("scenario evaluated",
		"test_id", result.TestID,
		"status", result.Status,
		"overall", result.OverallScore,
		"outcome", final.Outcome)

	if r.opts.Verbose {
		fmt.Fprintf(r.out, "\n========================================\n")
		fmt.Fprintf(r.out, "RESULTS: %s\n", scenario.Name)
		fmt.Fprintf(r.out, "========================================\n")
		fmt.Fprintf(r.out, "Faithfulness: %.2f\n", result.FaithfulnessScore)
		fmt.Fprintf(r.out, "Context Recall: %.2f\n", result.ContextRecallScore)
		fmt.Fprintf(r.out, "Outcome: %.2f\n", result.OutcomeScore)
		fmt.Fprintf(r.out, "Overall Score: %.2f\n", result.OverallScore)
		fmt.Fprintf(r.out, "Status: %s\n", result.Status)
		fmt.Fprintf(r.out, "========================================\n\n")
	}

	return result, nil
}

// processTurn sends one message and reports what came back
func (r *BenchmarkRunner) processTurn(ctx context.Context, s *session, conversationID, user, text string) (Observation, error) {
	before, err := s.archive.Escalations(ctx, "", 0)
	if err != nil {
		return Observation{}, err
	}

	msg := s.orch.DirectMessage(conversationID, user, text)
	if err := s.orch.HandleMessage(ctx, msg); err != nil {
		return Observation{}, err
	}

	var (
		texts  []string
		charts int
	)
	for _, out := range s.collector.Drain(conversationID) {
		if out.Kind != models.OutboundMessageKind {
			continue
		}
		texts = append(texts, out.Text)
		charts += len(out.Attachments)
	}

	after, err := s.archive.Escalations(ctx, "", 0)
	if err != nil {
		return Observation{}, err
	}
	outcome := OutcomeAnswer
	if len(after) > len(before) {
		outcome = after[0].Reason
	}

	return Observation{
		Response: strings.Join(texts, "\n"),
		Context:  r.knowledge.Retrieve(ctx, strings.TrimSpace(text), s.orch.Config().MaxChunks),
		Outcome:  outcome,
		Charts:   charts,
	}, nil
}

// RunAll executes the given scenarios in order
func (r *BenchmarkRunner) RunAll(ctx context.Context, scenarios []TestScenario) ([]TestResult, error) {
	results := make([]TestResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		result, err := r.RunTest(ctx, scenario)
		if err != nil {
			return nil, fmt.Errorf("test %s failed: %w", scenario.ID, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// RunAllTests executes the built-in scenarios
func (r *BenchmarkRunner) RunAllTests(ctx context.Context) ([]TestResult, error) {
	return r.RunAll(ctx, GetAllTests())
}

// Summary is the exported results document
type Summary struct {
	Timestamp  string       `json:"timestamp"`
	Knowledge  string       `json:"knowledge"`
	Retrieval  string       `json:"retrieval"`
	TotalTests int          `json:"total_tests"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	Results    []TestResult `json:"results"`
}

// Summarize counts passes and failures
func (r *BenchmarkRunner) Summarize(results []TestResult) Summary {
	s := Summary{
		Timestamp:  time.Now().Format(time.RFC3339),
		Knowledge:  r.knowledge.Source(),
		Retrieval:  r.knowledge.Mode(),
		TotalTests: len(results),
		Results:    results,
	}
	for _, result := range results {
		if result.Passed() {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// ExportResults writes the results summary as JSON
func (r *BenchmarkRunner) ExportResults(results []TestResult, outputPath string) error {
	jsonData, err := json.MarshalIndent(r.Summarize(results), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}

	fmt.Fprintf(r.out, "✓ Results exported to: %s\n", outputPath)
	return nil
}

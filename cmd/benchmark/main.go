// ABOUTME: Command-line benchmark runner for support answer quality
// ABOUTME: Runs scenarios against the configured model and knowledge base and writes JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/harper/supportbot/benchmarks/ragas"
	"github.com/harper/supportbot/internal/chart"
	"github.com/harper/supportbot/internal/config"
	"github.com/harper/supportbot/internal/core"
	"github.com/harper/supportbot/internal/llm"
	"github.com/harper/supportbot/internal/observability"
	"github.com/joho/godotenv"
)

func main() {
	testID := flag.String("test", "", "Run one built-in test (checkin, followup, offtopic, human, chart). If empty, runs all tests.")
	scenarioPath := flag.String("scenarios", "", "YAML file of scenarios to run instead of the built-in ones")
	knowledge := flag.String("knowledge", "", "Knowledge base file (defaults to KNOWLEDGE_BASE_PATH)")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found (continuing anyway): %v", err)
	}
	observability.SetLevel(*verbose, !*verbose)
	logger := observability.Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *knowledge != "" {
		cfg.KnowledgeBasePath = *knowledge
	}

	scenarios, err := selectScenarios(*testID, *scenarioPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := llm.NewOpenAIClientWithConfig(llm.ConfigFrom(cfg))
	if err != nil {
		log.Fatalf("OPENAI_API_KEY environment variable is required for benchmarks: %v", err)
	}

	kb, err := core.LoadKnowledgeBase(cfg.KnowledgeBasePath, core.NewChunkEngine(cfg.ChunkSize), logger)
	if err != nil {
		log.Fatalf("Failed to load knowledge base: %v", err)
	}
	if cfg.RAGMode == config.RAGModeSemantic {
		if err := kb.EnableSemantic(ctx, client.Embed); err != nil {
			log.Printf("Semantic retrieval unavailable, using lexical ranking: %v", err)
		}
	}

	renderer, err := chart.New(cfg.ChartRenderer, logger)
	if err != nil {
		log.Fatalf("Failed to create chart renderer: %v", err)
	}

	fmt.Println("========================================")
	fmt.Println("Support Bot Benchmarks")
	fmt.Println("========================================")
	fmt.Printf("Knowledge: %s (%d chunks, %s)\n\n", kb.Source(), kb.Len(), kb.Mode())

	runner, err := ragas.NewBenchmarkRunner(client, kb, ragas.Options{
		Orchestrator: core.OrchestratorConfigFrom(cfg),
		Model:        cfg.ChatModel,
		Renderer:     renderer,
		Verbose:      *verbose,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to create benchmark runner: %v", err)
	}

	results, err := runner.RunAll(ctx, scenarios)
	if err != nil {
		log.Fatalf("Benchmark failed: %v", err)
	}

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.TestID, result.TestName)
		fmt.Printf("  Faithfulness: %.2f\n", result.FaithfulnessScore)
		fmt.Printf("  Context Recall: %.2f\n", result.ContextRecallScore)
		fmt.Printf("  Outcome: %.2f\n", result.OutcomeScore)
		fmt.Printf("  Overall: %.2f\n", result.OverallScore)
		fmt.Printf("  Status: %s\n", result.Status)
	}

	summary := runner.Summarize(results)
	fmt.Println("\n========================================")
	fmt.Printf("Total Tests: %d\n", summary.TotalTests)
	fmt.Printf("Passed: %d\n", summary.Passed)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Println("========================================")

	if err := runner.ExportResults(results, *outputPath); err != nil {
		log.Fatalf("Failed to export results: %v", err)
	}

	if summary.Failed > 0 {
		os.Exit(1)
	}
}

// selectScenarios picks a YAML file, a single built-in test, or all built-in tests
func selectScenarios(testID, path string) ([]ragas.TestScenario, error) {
	var scenarios []ragas.TestScenario
	if path != "" {
		loaded, err := ragas.LoadScenarios(path)
		if err != nil {
			return nil, err
		}
		scenarios = loaded
	} else {
		scenarios = ragas.GetAllTests()
	}

	if testID == "" {
		return scenarios, nil
	}
	var ids []string
	for _, s := range scenarios {
		if strings.EqualFold(s.ID, testID) {
			return []ragas.TestScenario{s}, nil
		}
		ids = append(ids, s.ID)
	}
	return nil, fmt.Errorf("unknown test ID: %s (valid options: %s)", testID, strings.Join(ids, ", "))
}

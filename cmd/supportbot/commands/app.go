// ABOUTME: Shared wiring that builds the orchestrator and its collaborators from config
// ABOUTME: Used by serve, ask, chat, and mcp so every surface runs the same flow
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harper/supportbot/internal/chart"
	"github.com/harper/supportbot/internal/config"
	"github.com/harper/supportbot/internal/core"
	"github.com/harper/supportbot/internal/llm"
	"github.com/harper/supportbot/internal/observability"
	"github.com/harper/supportbot/internal/storage/sqlite"
)

// app holds one fully wired bot
type app struct {
	cfg       *config.Config
	client    *llm.OpenAIClient
	knowledge *core.KnowledgeBase
	store     *core.ConversationStore
	orch      *core.Orchestrator
	archive   *sqlite.Archive
	logger    *slog.Logger
}

// loadConfig reads the environment and applies the global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if knowledgePath != "" {
		cfg.KnowledgeBasePath = knowledgePath
	}
	if dbPath != "" {
		cfg.TranscriptDB = dbPath
	}
	return cfg, nil
}

// loadKnowledge chunks the configured knowledge file
func loadKnowledge(cfg *config.Config, logger *slog.Logger) (*core.KnowledgeBase, error) {
	kb, err := core.LoadKnowledgeBase(cfg.KnowledgeBasePath, core.NewChunkEngine(cfg.ChunkSize), logger)
	if err != nil {
		return nil, fmt.Errorf("loading knowledge base: %w", err)
	}
	return kb, nil
}

// openArchive opens the transcript archive, or returns nil when it is disabled
func openArchive(cfg *config.Config, logger *slog.Logger) (*sqlite.Archive, error) {
	path := sqlite.ResolvePath(cfg.TranscriptDB)
	if path == "" {
		return nil, nil
	}
	archive, err := sqlite.NewArchiveWithPath(path, logger)
	if err != nil {
		return nil, fmt.Errorf("opening transcript archive: %w", err)
	}
	return archive, nil
}

// newApp wires the orchestrator; fetcher may be nil when attachments are not downloadable
func newApp(ctx context.Context, cfg *config.Config, transport core.Transport, fetcher core.ImageFetcher) (*app, error) {
	logger := observability.Logger()

	client, err := llm.NewOpenAIClientWithConfig(llm.ConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("initializing OpenAI client (set OPENAI_API_KEY): %w", err)
	}

	kb, err := loadKnowledge(cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.RAGMode == config.RAGModeSemantic {
		if err := kb.EnableSemantic(ctx, client.Embed); err != nil {
			logger.Warn("semantic retrieval unavailable, using lexical ranking", "error", err)
		}
	}

	renderer, err := chart.New(cfg.ChartRenderer, logger)
	if err != nil {
		return nil, err
	}

	store := core.NewConversationStore(cfg.MessageRetentionCount, cfg.ConversationRetention, logger)
	deps := core.Dependencies{
		LLM:       client,
		Fetcher:   fetcher,
		Knowledge: kb,
		Store:     store,
		Compactor: core.NewContextCompactor(client, cfg.ChatModel, cfg.RecentMessageWindow, logger),
		Intents:   core.NewIntentClassifier(client, cfg.Params(cfg.MessageIntentTemperature), logger),
		Language:  core.NewLanguagePipeline(client, cfg.Params(cfg.LanguageDetectionTemperature), cfg.Params(cfg.TranslationTemperature), logger),
		Graphs:    core.NewGraphAugmenter(client, cfg.ChatModel, renderer, logger),
		Transport: transport,
	}
	if cfg.ImageOCR {
		deps.Vision = client
	}

	archive, err := openArchive(cfg, logger)
	if err != nil {
		// History still works in memory
		logger.Warn("transcript archive disabled", "error", err)
	}
	if archive != nil {
		deps.Recorder = archive
	}

	orch, err := core.NewOrchestrator(core.OrchestratorConfigFrom(cfg), deps, logger)
	if err != nil {
		if archive != nil {
			_ = archive.Close()
		}
		return nil, err
	}

	logger.Info("support bot ready",
		"knowledge", kb.Source(),
		"chunks", kb.Len(),
		"retrieval", kb.Mode(),
		"support_contacts", len(cfg.SupportUsers),
		"archive", archive != nil,
	)

	return &app{
		cfg:       cfg,
		client:    client,
		knowledge: kb,
		store:     store,
		orch:      orch,
		archive:   archive,
		logger:    logger,
	}, nil
}

// Close releases the archive
func (a *app) Close() error {
	if a.archive != nil {
		return a.archive.Close()
	}
	return nil
}

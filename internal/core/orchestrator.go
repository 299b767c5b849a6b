// ABOUTME: Orchestrator drives one inbound message from gating to delivery
// ABOUTME: Gates, merges OCR text, classifies, retrieves, completes, escalates, and records history
package core

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/harper/supportbot/internal/config"
	"github.com/harper/supportbot/internal/models"
	"github.com/harper/supportbot/internal/observability"
)

// ErrTransport wraps failures to deliver an outbound message
var ErrTransport = errors.New("transport send failed")

// Escalation reasons recorded in the transcript archive
const (
	ReasonNoAnswer    = "no_answer"
	ReasonNeedSupport = "need_support"
	ReasonError       = "error"
)

// OrchestratorConfig holds the settings the message flow needs
type OrchestratorConfig struct {
	BotName          string
	ProductName      string
	ReplyTo          []string
	SupportUsers     []models.SupportContact
	MaxChunks        int
	ContextMaxTokens int
	ResponseParams   models.ModelParams
	ImageOCR         bool
}

// OrchestratorConfigFrom maps loaded configuration onto the flow settings
func OrchestratorConfigFrom(cfg *config.Config) OrchestratorConfig {
	return OrchestratorConfig{
		BotName:          cfg.BotName,
		ProductName:      cfg.ProductName,
		ReplyTo:          cfg.ReplyTo,
		SupportUsers:     cfg.SupportUsers,
		MaxChunks:        cfg.MaxChunks,
		ContextMaxTokens: cfg.ContextMaxTokens,
		ResponseParams:   cfg.ResponseParams(),
		ImageOCR:         cfg.ImageOCR,
	}
}

// Dependencies are the components the orchestrator coordinates.
// Vision, Fetcher, Graphs and Recorder are optional.
type Dependencies struct {
	LLM       ChatCompleter
	Vision    VisionReader
	Fetcher   ImageFetcher
	Knowledge *KnowledgeBase
	Store     *ConversationStore
	Compactor *ContextCompactor
	Intents   *IntentClassifier
	Language  *LanguagePipeline
	Graphs    *GraphAugmenter
	Transport Transport
	Recorder  TranscriptRecorder
}

// Orchestrator is safe for concurrent use across conversations
type Orchestrator struct {
	cfg OrchestratorConfig
	Dependencies
	logger *slog.Logger
	now    func() time.Time
}

// Stats is a point-in-time view of the bot's in-memory state
type Stats struct {
	KnowledgeChunks     int    `json:"knowledge_chunks"`
	RetrievalMode       string `json:"retrieval_mode"`
	ActiveConversations int    `json:"active_conversations"`
	CachedSummaries     int    `json:"cached_summaries"`
}

// NewOrchestrator validates dependencies and creates an orchestrator
func NewOrchestrator(cfg OrchestratorConfig, deps Dependencies, logger *slog.Logger) (*Orchestrator, error) {
	switch {
	case deps.LLM == nil:
		return nil, errors.New("orchestrator: completion client is required")
	case deps.Knowledge == nil:
		return nil, errors.New("orchestrator: knowledge base is required")
	case deps.Store == nil:
		return nil, errors.New("orchestrator: conversation store is required")
	case deps.Compactor == nil, deps.Intents == nil, deps.Language == nil:
		return nil, errors.New("orchestrator: compactor, intent classifier and language pipeline are required")
	case deps.Transport == nil:
		return nil, errors.New("orchestrator: transport is required")
	}
	if cfg.MaxChunks <= 0 {
		cfg.MaxChunks = DefaultMaxChunks
	}
	if cfg.ContextMaxTokens <= 0 {
		cfg.ContextMaxTokens = DefaultContextTokens
	}
	if cfg.BotName == "" {
		cfg.BotName = "SupportBot"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:          cfg,
		Dependencies: deps,
		logger:       logger.With("component", "orchestrator"),
		now:          time.Now,
	}, nil
}

// Config returns the flow settings
func (o *Orchestrator) Config() OrchestratorConfig {
	return o.cfg
}

// Stats reports knowledge, conversation, and cache sizes
func (o *Orchestrator) Stats() Stats {
	return Stats{
		KnowledgeChunks:     o.Knowledge.Len(),
		RetrievalMode:       o.Knowledge.Mode(),
		ActiveConversations: o.Store.Len(),
		CachedSummaries:     o.Compactor.CachedSummaries(),
	}
}

// Welcome greets a conversation the bot was just added to
func (o *Orchestrator) Welcome(ctx context.Context, conversationID string) error {
	return o.send(ctx, models.OutboundMessage{
		Kind:           models.OutboundMessageKind,
		ConversationID: conversationID,
		Text:           WelcomeMessage(o.cfg.ProductName),
	})
}

// DirectMessage builds an inbound message addressed to the bot, for callers
// that are not a chat channel (CLI, MCP)
func (o *Orchestrator) DirectMessage(conversationID, userName, text string) models.InboundMessage {
	bot := models.Participant{ID: "bot:" + config.NormalizeName(o.cfg.BotName), Name: o.cfg.BotName}
	return models.InboundMessage{
		ID:             fmt.Sprintf("direct-%d", o.now().UnixNano()),
		ConversationID: conversationID,
		From:           models.Participant{ID: "user:" + config.NormalizeName(userName), Name: userName},
		Recipient:      bot,
		Text:           text,
		Mentions:       []models.Mention{models.NewMention(bot.ID, bot.Name)},
		ReceivedAt:     o.now(),
	}
}

// HandleMessage runs the full flow for one inbound message. Failures inside
// the flow are answered with an apology and escalation and return nil; only
// delivery failures are returned, wrapped in ErrTransport.
func (o *Orchestrator) HandleMessage(ctx context.Context, msg models.InboundMessage) error {
	ctx = observability.WithActivity(observability.WithConversation(ctx, msg.ConversationID), msg.ID)
	log := o.logger.With("conversation_id", msg.ConversationID, "user", msg.From.Name)
	defer func() { o.Store.EvictStale(o.now()) }()

	log.Info("MessageReceived", "activity_id", msg.ID, "text_length", len(msg.Text), "attachments", len(msg.Attachments))

	mentioned := msg.MentionsRecipient()
	if !mentioned && !o.repliesTo(msg.From.Name) {
		log.Debug("message not addressed to bot")
		return nil
	}

	query := o.assembleInput(ctx, msg, log)
	if query == "" {
		log.Debug("empty message after cleanup")
		return nil
	}

	intent, err := o.Intents.Classify(ctx, query)
	if err != nil {
		return o.deliverError(ctx, msg, query, err, log)
	}
	if ShouldIgnore(intent, mentioned) {
		log.Info("message ignored", "intent", intent)
		return nil
	}

	if err := o.Transport.Send(ctx, models.OutboundMessage{
		Kind:           models.OutboundTypingKind,
		ConversationID: msg.ConversationID,
	}); err != nil {
		log.Warn("typing indicator failed", "error", err)
	}

	lang := o.Language.DetectOrDefault(ctx, query)

	history := o.Store.History(msg.ConversationID)
	contextMessages := o.Compactor.BoundedContext(ctx, msg.ConversationID, history, o.cfg.ContextMaxTokens)

	knowledge := strings.Join(o.Knowledge.Retrieve(ctx, query, o.cfg.MaxChunks), "\n\n")
	o.logTokenUsage(log, knowledge, contextMessages, query)

	messages := make([]models.ContextMessage, 0, len(contextMessages)+2)
	messages = append(messages, models.ContextMessage{
		Role:    models.RoleSystem,
		Content: supportSystemPrompt(o.cfg.ProductName, lang, knowledge, o.now()),
	})
	messages = append(messages, contextMessages...)
	messages = append(messages, models.ContextMessage{Role: models.RoleUser, Content: query})

	raw, err := o.LLM.Complete(ctx, messages, o.cfg.ResponseParams)
	if err != nil {
		return o.deliverError(ctx, msg, query, err, log)
	}

	reply := models.ParseReply(raw)
	log.Info("response classified", "kind", reply.Kind, "intent", intent, "language", lang)

	switch reply.Kind {
	case models.ReplyNoAnswer:
		text := o.Language.Localize(ctx, NoAnswerFallback, lang)
		return o.deliverEscalation(ctx, msg, query, text, ReasonNoAnswer, log)
	case models.ReplyNeedSupport:
		return o.deliverEscalation(ctx, msg, query, NeedSupportFallback, ReasonNeedSupport, log)
	}

	text, attachments := o.Graphs.Augment(ctx, query, reply.Text)
	asker := models.NewMention(msg.From.ID, msg.From.Name)
	out := models.OutboundMessage{
		Kind:           models.OutboundMessageKind,
		ConversationID: msg.ConversationID,
		ReplyToID:      msg.ID,
		Text:           asker.Text + " " + text,
		Mentions:       []models.Mention{asker},
		Attachments:    attachments,
	}
	if err := o.send(ctx, out); err != nil {
		return err
	}

	o.appendTurns(ctx, msg, query, text, log)
	return nil
}

// repliesTo reports whether the sender is on the always-answer list
func (o *Orchestrator) repliesTo(name string) bool {
	n := config.NormalizeName(name)
	return n != "" && slices.Contains(o.cfg.ReplyTo, n)
}

// assembleInput strips the bot mention and merges text read from the first image
func (o *Orchestrator) assembleInput(ctx context.Context, msg models.InboundMessage, log *slog.Logger) string {
	text := msg.Text
	for _, m := range msg.Mentions {
		if m.ID == msg.Recipient.ID && m.Text != "" {
			text = strings.ReplaceAll(text, m.Text, "")
		}
	}
	text = strings.TrimSpace(text)

	if !o.cfg.ImageOCR || o.Fetcher == nil || o.Vision == nil {
		return text
	}
	img, ok := msg.FirstImage()
	if !ok {
		return text
	}

	extracted, err := o.readImage(ctx, img)
	if err != nil {
		log.Warn("image text extraction failed", "error", err, "content_type", img.ContentType)
		return text
	}
	if extracted == "" {
		return text
	}
	log.Info("image text extracted", "characters", len(extracted))
	if text == "" {
		return extracted
	}
	return text + "\n\n" + extracted
}

func (o *Orchestrator) readImage(ctx context.Context, img models.Attachment) (string, error) {
	data, err := o.Fetcher.Fetch(ctx, img)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	out, err := o.Vision.ExtractText(ctx, base64.StdEncoding.EncodeToString(data), ImageExtractionPrompt)
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// deliverEscalation sends a fallback with support contact mentions and records it
func (o *Orchestrator) deliverEscalation(ctx context.Context, msg models.InboundMessage, query, text, reason string, log *slog.Logger) error {
	out := o.escalationMessage(msg, text)
	if err := o.send(ctx, out); err != nil {
		return err
	}
	log.Info("escalated to support", "reason", reason, "contacts", len(o.cfg.SupportUsers))

	o.appendTurns(ctx, msg, query, text, log)
	o.recordEscalation(ctx, msg, query, reason, log)
	return nil
}

// deliverError apologizes and escalates after an unexpected failure
func (o *Orchestrator) deliverError(ctx context.Context, msg models.InboundMessage, query string, cause error, log *slog.Logger) error {
	log.Error("ErrorResponse", "error", cause, "user_id", msg.From.ID, "activity_id", msg.ID)

	if err := o.send(ctx, o.escalationMessage(msg, ErrorFallback)); err != nil {
		return err
	}

	o.appendTurns(ctx, msg, query, ErrorFallback, log)
	o.recordEscalation(ctx, msg, query, ReasonError, log)
	return nil
}

func (o *Orchestrator) escalationMessage(msg models.InboundMessage, text string) models.OutboundMessage {
	out := models.OutboundMessage{
		Kind:           models.OutboundMessageKind,
		ConversationID: msg.ConversationID,
		ReplyToID:      msg.ID,
		Text:           text,
	}
	if mentionText, mentions := supportMentions(o.cfg.SupportUsers); mentionText != "" {
		out.Text = text + "\n\n" + mentionText
		out.Mentions = mentions
	}
	return out
}

func (o *Orchestrator) send(ctx context.Context, out models.OutboundMessage) error {
	if err := o.Transport.Send(ctx, out); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

// appendTurns stores the exchange in memory and in the archive when configured
func (o *Orchestrator) appendTurns(ctx context.Context, msg models.InboundMessage, query, answer string, log *slog.Logger) {
	user, err := models.NewTurn(models.RoleUser, msg.From.Name, query)
	if err != nil {
		log.Warn("skipping history append", "error", err)
		return
	}
	assistant, err := models.NewTurn(models.RoleAssistant, o.cfg.BotName, answer)
	if err != nil {
		log.Warn("skipping history append", "error", err)
		return
	}

	o.Store.Append(msg.ConversationID, *user, *assistant)

	if o.Recorder != nil {
		if err := o.Recorder.RecordTurns(ctx, msg.ConversationID, *user, *assistant); err != nil {
			log.Warn("transcript write failed", "error", err)
		}
	}
}

func (o *Orchestrator) recordEscalation(ctx context.Context, msg models.InboundMessage, query, reason string, log *slog.Logger) {
	if o.Recorder == nil {
		return
	}
	err := o.Recorder.RecordEscalation(ctx, Escalation{
		ConversationID: msg.ConversationID,
		UserName:       msg.From.Name,
		Query:          query,
		Reason:         reason,
	})
	if err != nil {
		log.Warn("escalation write failed", "error", err)
	}
}

// logTokenUsage reports how large each part of the prompt is
func (o *Orchestrator) logTokenUsage(log *slog.Logger, knowledge string, contextMessages []models.ContextMessage, query string) {
	contextTokens := 0
	for _, m := range contextMessages {
		contextTokens += EstimateTokens(m.Content)
	}
	knowledgeTokens := EstimateTokens(knowledge)
	queryTokens := EstimateTokens(query)
	log.Info("TokenUsage",
		"knowledge_tokens", knowledgeTokens,
		"context_tokens", contextTokens,
		"query_tokens", queryTokens,
		"total_tokens", knowledgeTokens+contextTokens+queryTokens,
		"context_messages", len(contextMessages))
}

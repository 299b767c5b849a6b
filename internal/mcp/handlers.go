// ABOUTME: MCP tool handler implementations for the support bot
// ABOUTME: Drives the orchestrator through an in-memory transport and reads replies back
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/harper/supportbot/internal/core"
	"github.com/harper/supportbot/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultUserName is used when ask_support is called without a user name
const defaultUserName = "MCP User"

// Bot is the part of the orchestrator the tools drive
type Bot interface {
	DirectMessage(conversationID, userName, text string) models.InboundMessage
	HandleMessage(ctx context.Context, msg models.InboundMessage) error
	Stats() core.Stats
}

// HistoryArchive reads durable transcripts; optional
type HistoryArchive interface {
	History(ctx context.Context, conversationID string, limit int) ([]models.Turn, error)
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	bot       Bot
	collector *core.Collector
	knowledge *core.KnowledgeBase
	store     *core.ConversationStore
	archive   HistoryArchive
	logger    *slog.Logger

	// asks serializes ask_support so one call never drains another's replies
	asks sync.Mutex
}

// NewHandlers creates tool handlers; archive may be nil
func NewHandlers(bot Bot, collector *core.Collector, knowledge *core.KnowledgeBase, store *core.ConversationStore, archive HistoryArchive, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		bot:       bot,
		collector: collector,
		knowledge: knowledge,
		store:     store,
		archive:   archive,
		logger:    logger.With("component", "mcp"),
	}
}

// replyView is the JSON shape of one bot reply
type replyView struct {
	Text        string   `json:"text"`
	Mentions    []string `json:"mentions,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

// AskSupport handles the ask_support tool
func (h *Handlers) AskSupport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("question argument is required and must be a non-empty string"), nil
	}
	userName := request.GetString("user_name", defaultUserName)
	conversationID := request.GetString("conversation_id", "")
	if conversationID == "" {
		conversationID = "mcp-" + uuid.New().String()
	}

	h.asks.Lock()
	defer h.asks.Unlock()

	msg := h.bot.DirectMessage(conversationID, userName, question)
	if err := h.bot.HandleMessage(ctx, msg); err != nil {
		h.collector.Drain(conversationID)
		h.logger.Error("ask_support failed", "conversation_id", conversationID, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("support flow failed: %v", err)), nil
	}

	replies := make([]replyView, 0, 1)
	for _, out := range h.collector.Drain(conversationID) {
		view := replyView{Text: out.Text}
		for _, m := range out.Mentions {
			view.Mentions = append(view.Mentions, m.Name)
		}
		for _, a := range out.Attachments {
			view.Attachments = append(view.Attachments, fmt.Sprintf("%s (%s, %d bytes)", a.Name, a.ContentType, len(a.Data)))
		}
		replies = append(replies, view)
	}

	return jsonResult(map[string]interface{}{
		"conversation_id": conversationID,
		"replies":         replies,
	})
}

// SearchKnowledge handles the search_knowledge tool
func (h *Handlers) SearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	maxResults := request.GetInt("max_results", core.DefaultMaxChunks)

	chunks := h.knowledge.Retrieve(ctx, query, maxResults)

	return jsonResult(map[string]interface{}{
		"mode":   h.knowledge.Mode(),
		"chunks": chunks,
	})
}

// GetConversationHistory handles the get_conversation_history tool
func (h *Handlers) GetConversationHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	conversationID, err := request.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError("conversation_id argument is required and must be a string"), nil
	}
	limit := request.GetInt("limit", core.DefaultRetentionCount)

	source := "memory"
	turns := h.store.History(conversationID)
	if len(turns) == 0 && h.archive != nil {
		archived, err := h.archive.History(ctx, conversationID, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read archive: %v", err)), nil
		}
		turns = archived
		source = "archive"
	}
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	if turns == nil {
		turns = []models.Turn{}
	}

	return jsonResult(map[string]interface{}{
		"conversation_id": conversationID,
		"source":          source,
		"turns":           turns,
	})
}

// GetStats handles the get_stats tool
func (h *Handlers) GetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.bot.Stats())
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

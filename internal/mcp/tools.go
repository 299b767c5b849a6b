// ABOUTME: MCP tool definitions and registration for the support bot
// ABOUTME: Exposes asking, knowledge search, history, and stats as MCP tools
package mcp

import (
	"log/slog"

	"github.com/harper/supportbot/internal/core"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, bot Bot, collector *core.Collector, knowledge *core.KnowledgeBase, store *core.ConversationStore, archive HistoryArchive, logger *slog.Logger) *Handlers {
	handlers := NewHandlers(bot, collector, knowledge, store, archive, logger)

	// 1. ask_support - run a question through the full support flow
	server.AddTool(mcp.Tool{
		Name:        "ask_support",
		Description: "Ask the support bot a question. Runs intent classification, knowledge retrieval, translation, and escalation exactly as in Teams.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "The question to ask",
				},
				"user_name": map[string]interface{}{
					"type":        "string",
					"description": "Display name of the asker (default: MCP User)",
				},
				"conversation_id": map[string]interface{}{
					"type":        "string",
					"description": "Conversation to continue; omit to start a new one",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AskSupport)

	// 2. search_knowledge - show the chunks that would ground an answer
	server.AddTool(mcp.Tool{
		Name:        "search_knowledge",
		Description: "Search the support knowledge base and return the most relevant sections.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of sections to return (default: 3)",
					"default":     core.DefaultMaxChunks,
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchKnowledge)

	// 3. get_conversation_history - live or archived turns
	server.AddTool(mcp.Tool{
		Name:        "get_conversation_history",
		Description: "Get the stored turns of a conversation, from memory or the transcript archive.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"conversation_id": map[string]interface{}{
					"type":        "string",
					"description": "Conversation ID",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of newest turns (default: 20)",
					"default":     core.DefaultRetentionCount,
				},
			},
			Required: []string{"conversation_id"},
		},
	}, handlers.GetConversationHistory)

	// 4. get_stats - knowledge and conversation counters
	server.AddTool(mcp.Tool{
		Name:        "get_stats",
		Description: "Report knowledge base size, retrieval mode, active conversations, and cached summaries.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.GetStats)

	return handlers
}

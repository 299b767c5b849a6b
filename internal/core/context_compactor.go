// ABOUTME: ContextCompactor turns conversation history into a token-bounded prompt context
// ABOUTME: Summarizes older turns once per window position and keeps recent turns verbatim
package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/harper/supportbot/internal/models"
)

const (
	// DefaultRecentWindow is how many trailing turns are kept verbatim
	DefaultRecentWindow = 6
	// DefaultContextTokens is the default context budget
	DefaultContextTokens = 1500

	summaryMaxTokens   = 150
	summaryTemperature = 0.3
	summaryCacheLimit  = 100
	summaryCacheKeep   = 50
)

// ContextCompactor is safe for concurrent use
type ContextCompactor struct {
	llm          ChatCompleter
	params       models.ModelParams
	recentWindow int
	logger       *slog.Logger

	mu        sync.Mutex
	summaries map[string]string
	order     []string
}

// NewContextCompactor creates a compactor that summarizes with the given model
func NewContextCompactor(llm ChatCompleter, model string, recentWindow int, logger *slog.Logger) *ContextCompactor {
	if recentWindow <= 0 {
		recentWindow = DefaultRecentWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextCompactor{
		llm: llm,
		params: models.ModelParams{
			Model:       model,
			Temperature: summaryTemperature,
			MaxTokens:   summaryMaxTokens,
		},
		recentWindow: recentWindow,
		logger:       logger.With("component", "context_compactor"),
		summaries:    make(map[string]string),
	}
}

// BoundedContext returns history as prompt messages within maxTokens. Short
// histories pass through verbatim; longer ones get a summary of the older
// turns as a system message. The newest message is always kept. Failures
// degrade to the recent window and are never returned.
func (c *ContextCompactor) BoundedContext(ctx context.Context, conversationID string, history []models.Turn, maxTokens int) []models.ContextMessage {
	if maxTokens <= 0 {
		maxTokens = DefaultContextTokens
	}

	messages := c.optimize(ctx, conversationID, history)
	bounded, tokens := fitBudget(messages, maxTokens)

	c.logger.Debug("context built",
		"conversation_id", conversationID,
		"history", len(history),
		"messages", len(bounded),
		"tokens", tokens)
	return bounded
}

// optimize applies the summary plus recent window policy without the budget
func (c *ContextCompactor) optimize(ctx context.Context, conversationID string, history []models.Turn) []models.ContextMessage {
	if len(history) <= c.recentWindow {
		return toContextMessages(history)
	}

	split := len(history) - c.recentWindow
	old, recent := history[:split], history[split:]

	var messages []models.ContextMessage
	summary, err := c.summary(ctx, conversationID, old)
	if err != nil {
		c.logger.Warn("summarization failed, using recent window only",
			"conversation_id", conversationID, "error", err)
	} else if summary != "" {
		messages = append(messages, models.ContextMessage{
			Role:    models.RoleSystem,
			Content: summaryPrefix + summary,
		})
	}

	return append(messages, toContextMessages(recent)...)
}

// summary returns the cached summary for old, computing it on a miss. The key
// includes the newest summarized turn so a sliding window at the retention
// cap gets a fresh summary even though the count is unchanged.
func (c *ContextCompactor) summary(ctx context.Context, conversationID string, old []models.Turn) (string, error) {
	key := summaryKey(conversationID, old)

	c.mu.Lock()
	cached, ok := c.summaries[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	if c.llm == nil {
		return "", fmt.Errorf("no summarizer configured")
	}

	out, err := c.llm.Complete(ctx, []models.ContextMessage{
		{Role: models.RoleSystem, Content: summarizerInstruction},
		{Role: models.RoleUser, Content: summaryPrompt(old)},
	}, c.params)
	if err != nil {
		return "", fmt.Errorf("summarize %d turns: %w", len(old), err)
	}
	out = strings.TrimSpace(out)

	c.store(key, out)
	return out, nil
}

func (c *ContextCompactor) store(key, summary string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.summaries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.summaries[key] = summary

	if len(c.summaries) > summaryCacheLimit {
		drop := c.order[:len(c.order)-summaryCacheKeep]
		for _, k := range drop {
			delete(c.summaries, k)
		}
		c.order = append([]string(nil), c.order[len(c.order)-summaryCacheKeep:]...)
	}
}

// CachedSummaries returns the number of cached summaries
func (c *ContextCompactor) CachedSummaries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.summaries)
}

func summaryKey(conversationID string, old []models.Turn) string {
	boundary := ""
	if len(old) > 0 {
		boundary = old[len(old)-1].TurnID
	}
	return fmt.Sprintf("%s_%d_%s", conversationID, len(old), boundary)
}

// fitBudget walks backward from the newest message, keeping messages while the
// running estimate stays within maxTokens. At least one message is kept.
func fitBudget(messages []models.ContextMessage, maxTokens int) ([]models.ContextMessage, int) {
	total := 0
	start := len(messages)
	for i := len(messages) - 1; i >= 0; i-- {
		t := EstimateTokens(messages[i].Content)
		if total+t > maxTokens && start < len(messages) {
			break
		}
		total += t
		start = i
	}
	return messages[start:], total
}

// EstimateTokens approximates tokens as one per four characters, rounded up
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// toContextMessages maps user turns to user messages and everything else to assistant
func toContextMessages(turns []models.Turn) []models.ContextMessage {
	out := make([]models.ContextMessage, 0, len(turns))
	for _, t := range turns {
		role := models.RoleAssistant
		if t.Role == models.RoleUser {
			role = models.RoleUser
		}
		out = append(out, models.ContextMessage{Role: role, Content: t.Content})
	}
	return out
}

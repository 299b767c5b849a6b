// ABOUTME: IntentClassifier decides whether a channel message is meant for the bot
// ABOUTME: One LLM call with a fixed few-shot instruction yields one of four intents
package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harper/supportbot/internal/models"
)

// IntentClassifier labels messages as QUESTION, ERROR, RELATED_STATEMENT or IGNORE
type IntentClassifier struct {
	llm    ChatCompleter
	params models.ModelParams
	logger *slog.Logger
}

// NewIntentClassifier creates a classifier using params for the call
func NewIntentClassifier(llm ChatCompleter, params models.ModelParams, logger *slog.Logger) *IntentClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntentClassifier{llm: llm, params: params, logger: logger.With("component", "intent_classifier")}
}

// Classify returns the message intent. Unexpected model output is treated as a question.
func (c *IntentClassifier) Classify(ctx context.Context, message string) (models.Intent, error) {
	raw, err := c.llm.Complete(ctx, []models.ContextMessage{
		{Role: models.RoleSystem, Content: intentInstruction},
		{Role: models.RoleUser, Content: message},
	}, c.params)
	if err != nil {
		return "", fmt.Errorf("classify intent: %w", err)
	}

	intent := models.ParseIntent(raw)
	c.logger.Debug("intent classified", "intent", intent, "raw", raw)
	return intent, nil
}

// ShouldIgnore reports whether a classified message should be dropped silently
func ShouldIgnore(intent models.Intent, mentioned bool) bool {
	return intent == models.IntentIgnore && !mentioned
}

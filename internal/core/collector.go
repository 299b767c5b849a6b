// ABOUTME: Collector is an in-memory Transport for callers without a chat channel
// ABOUTME: The CLI and MCP server read replies back out of it per conversation
package core

import (
	"context"
	"sync"

	"github.com/harper/supportbot/internal/models"
)

// Collector buffers outbound messages by conversation
type Collector struct {
	mu       sync.Mutex
	messages map[string][]models.OutboundMessage
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{messages: make(map[string][]models.OutboundMessage)}
}

// Send implements Transport
func (c *Collector) Send(ctx context.Context, msg models.OutboundMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages[msg.ConversationID] = append(c.messages[msg.ConversationID], msg)
	return nil
}

// Messages returns every buffered message for a conversation, typing indicators included
func (c *Collector) Messages(conversationID string) []models.OutboundMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.OutboundMessage(nil), c.messages[conversationID]...)
}

// Drain returns the buffered replies for a conversation and forgets them.
// Typing indicators are dropped.
func (c *Collector) Drain(conversationID string) []models.OutboundMessage {
	c.mu.Lock()
	buffered := c.messages[conversationID]
	delete(c.messages, conversationID)
	c.mu.Unlock()

	var replies []models.OutboundMessage
	for _, m := range buffered {
		if m.Kind != models.OutboundTypingKind {
			replies = append(replies, m)
		}
	}
	return replies
}

// ABOUTME: Transport-neutral inbound and outbound message shapes
// ABOUTME: Adapters (Teams HTTP, CLI, MCP) translate to and from these types
package models

import (
	"fmt"
	"strings"
	"time"
)

// Participant is a user or bot account on the messaging platform
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Mention references a participant inside message text
type Mention struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// NewMention builds a mention whose text uses the platform's <at> markup
func NewMention(id, name string) Mention {
	return Mention{ID: id, Name: name, Text: fmt.Sprintf("<at>%s</at>", name)}
}

// Attachment is a file carried by a message. Inbound attachments usually
// carry a URL; outbound ones (rendered charts) carry Data.
type Attachment struct {
	ContentType string `json:"content_type"`
	Name        string `json:"name,omitempty"`
	URL         string `json:"url,omitempty"`
	Data        []byte `json:"-"`
}

// IsImage reports whether the attachment has an image content type
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(a.ContentType), "image/")
}

// InboundMessage is a user message delivered to the bot
type InboundMessage struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversation_id"`
	From           Participant  `json:"from"`
	Recipient      Participant  `json:"recipient"`
	Text           string       `json:"text"`
	Mentions       []Mention    `json:"mentions,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	ReceivedAt     time.Time    `json:"received_at"`
}

// MentionsRecipient reports whether the bot was explicitly mentioned
func (m *InboundMessage) MentionsRecipient() bool {
	if m.Recipient.ID == "" {
		return false
	}
	for _, mention := range m.Mentions {
		if mention.ID == m.Recipient.ID {
			return true
		}
	}
	return false
}

// FirstImage returns the first image attachment, if any
func (m *InboundMessage) FirstImage() (Attachment, bool) {
	for _, a := range m.Attachments {
		if a.IsImage() {
			return a, true
		}
	}
	return Attachment{}, false
}

// OutboundKind distinguishes regular messages from typing indicators
type OutboundKind string

const (
	OutboundMessageKind OutboundKind = "message"
	OutboundTypingKind  OutboundKind = "typing"
)

// OutboundMessage is what the bot sends back
type OutboundMessage struct {
	Kind           OutboundKind `json:"kind"`
	ConversationID string       `json:"conversation_id"`
	ReplyToID      string       `json:"reply_to_id,omitempty"`
	Text           string       `json:"text"`
	Mentions       []Mention    `json:"mentions,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// SupportContact is a human escalation target
type SupportContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

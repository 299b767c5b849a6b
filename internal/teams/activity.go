// ABOUTME: Bot Framework activity wire types and conversion to core message shapes
// ABOUTME: Only the fields the support bot reads or writes are modelled
package teams

import (
	"encoding/base64"
	"time"

	"github.com/harper/supportbot/internal/models"
)

// Activity types handled by the bot
const (
	ActivityMessage            = "message"
	ActivityTyping             = "typing"
	ActivityConversationUpdate = "conversationUpdate"
)

// ChannelAccount identifies a user or bot
type ChannelAccount struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	AADObjectID string `json:"aadObjectId,omitempty"`
}

// ConversationAccount identifies a conversation
type ConversationAccount struct {
	ID               string `json:"id"`
	ConversationType string `json:"conversationType,omitempty"`
	TenantID         string `json:"tenantId,omitempty"`
	IsGroup          bool   `json:"isGroup,omitempty"`
}

// Attachment is a file or card on an activity
type Attachment struct {
	ContentType string `json:"contentType"`
	ContentURL  string `json:"contentUrl,omitempty"`
	Name        string `json:"name,omitempty"`
	Content     any    `json:"content,omitempty"`
}

// Entity carries structured metadata such as mentions
type Entity struct {
	Type      string          `json:"type"`
	Mentioned *ChannelAccount `json:"mentioned,omitempty"`
	Text      string          `json:"text,omitempty"`
}

// Activity is a Bot Framework activity
type Activity struct {
	Type         string              `json:"type"`
	ID           string              `json:"id,omitempty"`
	Timestamp    time.Time           `json:"timestamp,omitzero"`
	ServiceURL   string              `json:"serviceUrl,omitempty"`
	ChannelID    string              `json:"channelId,omitempty"`
	From         ChannelAccount      `json:"from"`
	Conversation ConversationAccount `json:"conversation"`
	Recipient    ChannelAccount      `json:"recipient"`
	Text         string              `json:"text,omitempty"`
	TextFormat   string              `json:"textFormat,omitempty"`
	ReplyToID    string              `json:"replyToId,omitempty"`
	Attachments  []Attachment        `json:"attachments,omitempty"`
	Entities     []Entity            `json:"entities,omitempty"`
	MembersAdded []ChannelAccount    `json:"membersAdded,omitempty"`
}

// BotAdded reports whether a conversationUpdate adds the bot itself
func (a *Activity) BotAdded() bool {
	if a.Type != ActivityConversationUpdate {
		return false
	}
	for _, m := range a.MembersAdded {
		if m.ID == a.Recipient.ID {
			return true
		}
	}
	return false
}

// ToInbound converts a message activity into the core message shape.
// Mention markup for the bot is removed from the text.
func ToInbound(a Activity) models.InboundMessage {
	msg := models.InboundMessage{
		ID:             a.ID,
		ConversationID: a.Conversation.ID,
		From:           models.Participant{ID: a.From.ID, Name: a.From.Name},
		Recipient:      models.Participant{ID: a.Recipient.ID, Name: a.Recipient.Name},
		ReceivedAt:     a.Timestamp,
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now().UTC()
	}

	for _, e := range a.Entities {
		if e.Type != "mention" || e.Mentioned == nil {
			continue
		}
		msg.Mentions = append(msg.Mentions, models.Mention{
			ID:   e.Mentioned.ID,
			Name: e.Mentioned.Name,
			Text: e.Text,
		})
	}

	for _, att := range a.Attachments {
		url := att.ContentURL
		if url == "" {
			if dl, ok := downloadURL(att.Content); ok {
				url = dl
			}
		}
		if url == "" {
			continue
		}
		msg.Attachments = append(msg.Attachments, models.Attachment{
			ContentType: normalizeContentType(att),
			Name:        att.Name,
			URL:         url,
		})
	}

	msg.Text = CleanText(a.Text, a.Recipient.Name)
	return msg
}

// downloadURL reads the downloadUrl of a Teams file download info card
func downloadURL(content any) (string, bool) {
	m, ok := content.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := m["downloadUrl"].(string)
	return s, ok && s != ""
}

// normalizeContentType maps Teams file cards for images onto an image type
func normalizeContentType(att Attachment) string {
	if att.ContentType != "application/vnd.microsoft.teams.file.download.info" {
		return att.ContentType
	}
	if m, ok := att.Content.(map[string]any); ok {
		switch m["fileType"] {
		case "png":
			return "image/png"
		case "jpg", "jpeg":
			return "image/jpeg"
		case "gif":
			return "image/gif"
		}
	}
	return att.ContentType
}

// FromOutbound builds the activity sent for an outbound message
func FromOutbound(out models.OutboundMessage, bot ChannelAccount) Activity {
	a := Activity{
		Type:         ActivityMessage,
		From:         bot,
		Conversation: ConversationAccount{ID: out.ConversationID},
		Text:         out.Text,
		TextFormat:   "markdown",
		ReplyToID:    out.ReplyToID,
	}
	if out.Kind == models.OutboundTypingKind {
		a.Type = ActivityTyping
		a.Text = ""
		a.TextFormat = ""
		return a
	}

	for _, m := range out.Mentions {
		a.Entities = append(a.Entities, Entity{
			Type:      "mention",
			Mentioned: &ChannelAccount{ID: m.ID, Name: m.Name},
			Text:      m.Text,
		})
	}
	for _, att := range out.Attachments {
		a.Attachments = append(a.Attachments, Attachment{
			ContentType: att.ContentType,
			Name:        att.Name,
			ContentURL:  "data:" + att.ContentType + ";base64," + base64.StdEncoding.EncodeToString(att.Data),
		})
	}
	return a
}

// ABOUTME: Turn represents a single message in a support conversation
// ABOUTME: Core data structure held by the ConversationStore
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Turn represents a single conversation message
type Turn struct {
	TurnID     string    `json:"turn_id"`
	Role       Role      `json:"role"`
	AuthorName string    `json:"author_name,omitempty"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewTurn creates a new Turn with validation
func NewTurn(role Role, authorName, content string) (*Turn, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	if role == RoleUser && strings.TrimSpace(content) == "" {
		return nil, errors.New("user message cannot be empty")
	}
	return &Turn{
		TurnID:     generateTurnID(),
		Role:       role,
		AuthorName: authorName,
		Content:    content,
		Timestamp:  time.Now().UTC(),
	}, nil
}

// generateTurnID generates a unique turn identifier
func generateTurnID() string {
	return fmt.Sprintf("turn_%s_%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8])
}

// ABOUTME: ConversationStore keeps bounded per-conversation history in memory
// ABOUTME: Enforces a retention count on append and evicts idle conversations on demand
package core

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/harper/supportbot/internal/models"
)

const (
	// DefaultRetentionCount is the default number of turns kept per conversation
	DefaultRetentionCount = 20
	// DefaultRetentionWindow is how long an idle conversation is kept
	DefaultRetentionWindow = 24 * time.Hour
)

// ConversationStore is safe for concurrent use. Eviction scans every
// conversation, so its cost grows with the number of active conversations.
type ConversationStore struct {
	mu              sync.Mutex
	conversations   map[string][]models.Turn
	retentionCount  int
	retentionWindow time.Duration
	logger          *slog.Logger
}

// ConversationInfo summarizes one stored conversation
type ConversationInfo struct {
	ID         string
	Turns      int
	LastActive time.Time
}

// NewConversationStore creates a store; non-positive limits use the defaults
func NewConversationStore(retentionCount int, retentionWindow time.Duration, logger *slog.Logger) *ConversationStore {
	if retentionCount <= 0 {
		retentionCount = DefaultRetentionCount
	}
	if retentionWindow <= 0 {
		retentionWindow = DefaultRetentionWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationStore{
		conversations:   make(map[string][]models.Turn),
		retentionCount:  retentionCount,
		retentionWindow: retentionWindow,
		logger:          logger.With("component", "conversation_store"),
	}
}

// Append adds turns to a conversation, creating it if needed, then drops the
// oldest turns beyond the retention count
func (s *ConversationStore) Append(conversationID string, turns ...models.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.conversations[conversationID], turns...)
	if over := len(history) - s.retentionCount; over > 0 {
		trimmed := make([]models.Turn, s.retentionCount)
		copy(trimmed, history[over:])
		history = trimmed
	}
	s.conversations[conversationID] = history
}

// History returns a copy of the conversation's turns, oldest first
func (s *ConversationStore) History(conversationID string) []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.conversations[conversationID]
	if len(history) == 0 {
		return nil
	}
	out := make([]models.Turn, len(history))
	copy(out, history)
	return out
}

// EvictStale deletes empty conversations and those whose newest turn is
// older than the retention window. It returns the number deleted.
func (s *ConversationStore) EvictStale(now time.Time) int {
	s.mu.Lock()
	deleted := 0
	for id, history := range s.conversations {
		if len(history) == 0 || now.Sub(lastActivity(history)) > s.retentionWindow {
			delete(s.conversations, id)
			deleted++
		}
	}
	s.mu.Unlock()

	if deleted > 0 {
		s.logger.Info("ConversationCleanup", "deleted_conversations", deleted)
	}
	return deleted
}

// Len returns the number of stored conversations
func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// List returns stored conversations, most recently active first
func (s *ConversationStore) List() []ConversationInfo {
	s.mu.Lock()
	infos := make([]ConversationInfo, 0, len(s.conversations))
	for id, history := range s.conversations {
		infos = append(infos, ConversationInfo{ID: id, Turns: len(history), LastActive: lastActivity(history)})
	}
	s.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].LastActive.Equal(infos[j].LastActive) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].LastActive.After(infos[j].LastActive)
	})
	return infos
}

// lastActivity is the newest timestamp in history; turns may arrive out of order
func lastActivity(history []models.Turn) time.Time {
	var latest time.Time
	for _, t := range history {
		if t.Timestamp.After(latest) {
			latest = t.Timestamp
		}
	}
	return latest
}

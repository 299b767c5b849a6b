// ABOUTME: Archive is the transcript store that wraps the SQLite turn and escalation stores
// ABOUTME: Implements the orchestrator's TranscriptRecorder for durable history
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/harper/supportbot/internal/core"
	"github.com/harper/supportbot/internal/models"
)

// Archive persists handled exchanges so they survive restarts and eviction
type Archive struct {
	db          *DB
	turns       *TurnStore
	escalations *EscalationStore
	logger      *slog.Logger
	now         func() time.Time
}

var _ core.TranscriptRecorder = (*Archive)(nil)

// NewArchive opens the archive at the default XDG location
func NewArchive(logger *slog.Logger) (*Archive, error) {
	return NewArchiveWithPath(DefaultDBPath(), logger)
}

// NewArchiveWithPath opens the archive at a custom database path
func NewArchiveWithPath(dbPath string, logger *slog.Logger) (*Archive, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newArchive(db, logger), nil
}

// NewArchiveInMemory creates an in-memory archive (for testing)
func NewArchiveInMemory(logger *slog.Logger) (*Archive, error) {
	db, err := OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return newArchive(db, logger), nil
}

func newArchive(db *DB, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{
		db:          db,
		turns:       NewTurnStore(db),
		escalations: NewEscalationStore(db),
		logger:      logger.With("component", "archive", "path", db.Path()),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Close closes the database connection
func (a *Archive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// RecordTurns stores turns in one transaction so an exchange is never half-written
func (a *Archive) RecordTurns(ctx context.Context, conversationID string, turns ...models.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	tx, err := a.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	for _, t := range turns {
		if err := saveTurn(ctx, tx, conversationID, t); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit turns: %w", err)
	}
	a.logger.Debug("turns archived", "conversation_id", conversationID, "count", len(turns))
	return nil
}

// RecordEscalation stores a hand-off to human support
func (a *Archive) RecordEscalation(ctx context.Context, e core.Escalation) error {
	rec := &EscalationRecord{
		ConversationID: e.ConversationID,
		UserName:       e.UserName,
		Query:          e.Query,
		Reason:         e.Reason,
		CreatedAt:      a.now(),
	}
	if err := a.escalations.Save(ctx, rec); err != nil {
		return err
	}
	a.logger.Info("escalation archived", "conversation_id", e.ConversationID, "reason", e.Reason)
	return nil
}

// History returns up to limit of the newest archived turns, oldest first
func (a *Archive) History(ctx context.Context, conversationID string, limit int) ([]models.Turn, error) {
	return a.turns.ListByConversation(ctx, conversationID, limit)
}

// Conversations lists archived conversations, most recently active first
func (a *Archive) Conversations(ctx context.Context) ([]ConversationSummary, error) {
	return a.turns.Conversations(ctx)
}

// Escalations lists archived escalations, newest first
func (a *Archive) Escalations(ctx context.Context, reason string, limit int) ([]EscalationRecord, error) {
	return a.escalations.List(ctx, reason, limit)
}

// Forget deletes a conversation's archived turns
func (a *Archive) Forget(ctx context.Context, conversationID string) (int64, error) {
	n, err := a.turns.DeleteConversation(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	a.logger.Info("conversation forgotten", "conversation_id", conversationID, "turns", n)
	return n, nil
}

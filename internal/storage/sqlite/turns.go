// ABOUTME: Turn storage operations for SQLite
// ABOUTME: Persists conversation turns and summarizes archived conversations
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harper/supportbot/internal/models"
)

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// TurnStore handles turn persistence
type TurnStore struct {
	db *DB
}

// ConversationSummary describes one archived conversation
type ConversationSummary struct {
	ConversationID string
	Turns          int
	FirstAt        time.Time
	LastAt         time.Time
}

// NewTurnStore creates a new TurnStore
func NewTurnStore(db *DB) *TurnStore {
	return &TurnStore{db: db}
}

// Save saves a turn; saving the same turn ID twice updates it in place
func (s *TurnStore) Save(ctx context.Context, conversationID string, turn models.Turn) error {
	return saveTurn(ctx, s.db.conn, conversationID, turn)
}

func saveTurn(ctx context.Context, ex execer, conversationID string, turn models.Turn) error {
	createdAt := turn.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO turns (id, conversation_id, role, author, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			role = excluded.role,
			author = excluded.author,
			content = excluded.content
	`, turn.TurnID, conversationID, string(turn.Role), turn.AuthorName, turn.Content, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("save turn %s: %w", turn.TurnID, err)
	}
	return nil
}

// ListByConversation retrieves a conversation's turns, oldest first.
// A positive limit keeps only the newest limit turns.
func (s *TurnStore) ListByConversation(ctx context.Context, conversationID string, limit int) ([]models.Turn, error) {
	query := `
		SELECT id, role, author, content, created_at FROM (
			SELECT id, role, author, content, created_at, rowid AS seq
			FROM turns
			WHERE conversation_id = ?
			ORDER BY created_at DESC, seq DESC
			LIMIT ?
		) ORDER BY created_at ASC, seq ASC
	`
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.conn.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var turns []models.Turn
	for rows.Next() {
		var (
			turn   models.Turn
			role   string
			author sql.NullString
		)
		if err := rows.Scan(&turn.TurnID, &role, &author, &turn.Content, &turn.Timestamp); err != nil {
			return nil, err
		}
		turn.Role = models.Role(role)
		turn.AuthorName = author.String
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// Conversations lists archived conversations, most recently active first
func (s *TurnStore) Conversations(ctx context.Context) ([]ConversationSummary, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT conversation_id, COUNT(*), MIN(created_at), MAX(created_at)
		FROM turns
		GROUP BY conversation_id
		ORDER BY MAX(created_at) DESC, conversation_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ConversationSummary
	for rows.Next() {
		var (
			c             ConversationSummary
			first, latest string
		)
		if err := rows.Scan(&c.ConversationID, &c.Turns, &first, &latest); err != nil {
			return nil, err
		}
		c.FirstAt = parseTimestamp(first)
		c.LastAt = parseTimestamp(latest)
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteConversation removes every archived turn of a conversation
func (s *TurnStore) DeleteConversation(ctx context.Context, conversationID string) (int64, error) {
	res, err := s.db.conn.ExecContext(ctx, "DELETE FROM turns WHERE conversation_id = ?", conversationID)
	if err != nil {
		return 0, fmt.Errorf("delete conversation: %w", err)
	}
	return res.RowsAffected()
}

// timestampLayouts covers the formats the driver writes for time.Time values.
// Aggregates come back as text, so they are parsed by hand.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ABOUTME: Escalation storage operations for SQLite
// ABOUTME: Records hand-offs to human support for later review
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EscalationRecord is an archived hand-off to human support
type EscalationRecord struct {
	ID             string    `yaml:"id" json:"id"`
	ConversationID string    `yaml:"conversation_id" json:"conversation_id"`
	UserName       string    `yaml:"user_name,omitempty" json:"user_name,omitempty"`
	Query          string    `yaml:"query" json:"query"`
	Reason         string    `yaml:"reason" json:"reason"`
	CreatedAt      time.Time `yaml:"created_at" json:"created_at"`
}

// EscalationStore handles escalation persistence
type EscalationStore struct {
	db *DB
}

// NewEscalationStore creates a new EscalationStore
func NewEscalationStore(db *DB) *EscalationStore {
	return &EscalationStore{db: db}
}

// Save stores an escalation, assigning an ID and timestamp when missing
func (s *EscalationStore) Save(ctx context.Context, rec *EscalationRecord) error {
	if rec.ID == "" {
		rec.ID = "esc_" + uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO escalations (id, conversation_id, user_name, query, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.ConversationID, rec.UserName, rec.Query, rec.Reason, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save escalation: %w", err)
	}
	return nil
}

// List returns escalations newest first; an empty reason matches all
func (s *EscalationStore) List(ctx context.Context, reason string, limit int) ([]EscalationRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, conversation_id, user_name, query, reason, created_at
		FROM escalations
		WHERE ? = '' OR reason = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, reason, reason, limit)
	if err != nil {
		return nil, fmt.Errorf("list escalations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []EscalationRecord
	for rows.Next() {
		var (
			rec  EscalationRecord
			user sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.ConversationID, &user, &rec.Query, &rec.Reason, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.UserName = user.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountByReason tallies escalations per reason
func (s *EscalationStore) CountByReason(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.conn.QueryContext(ctx, "SELECT reason, COUNT(*) FROM escalations GROUP BY reason")
	if err != nil {
		return nil, fmt.Errorf("count escalations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			reason string
			n      int
		)
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, err
		}
		counts[reason] = n
	}
	return counts, rows.Err()
}

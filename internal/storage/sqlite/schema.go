// ABOUTME: SQLite database schema for the transcript archive
// ABOUTME: Creates tables and indexes for turns and support escalations
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Conversation turns, one row per user or assistant message
CREATE TABLE IF NOT EXISTS turns (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    role TEXT NOT NULL,
    author TEXT,
    content TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

-- Hand-offs to human support
CREATE TABLE IF NOT EXISTS escalations (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    user_name TEXT,
    query TEXT NOT NULL,
    reason TEXT NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turns_conversation ON turns(conversation_id, created_at);
CREATE INDEX IF NOT EXISTS idx_escalations_conversation ON escalations(conversation_id);
CREATE INDEX IF NOT EXISTS idx_escalations_reason ON escalations(reason);
`

// SchemaVersion is the current schema version, stored in PRAGMA user_version
const SchemaVersion = 1

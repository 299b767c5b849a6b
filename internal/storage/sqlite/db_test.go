// ABOUTME: Tests for SQLite database connection and schema initialization
// ABOUTME: Verifies database creation, schema, and path resolution
package sqlite

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenInMemory(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if db.Conn() == nil {
		t.Error("Conn() should not be nil")
	}

	if db.Path() != ":memory:" {
		t.Errorf("Path() = %v, want :memory:", db.Path())
	}
}

func TestSchemaInitialization(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	tables := []string{"turns", "escalations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s does not exist: %v", table, err)
		}
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("user_version error = %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("user_version = %d, want %d", version, SchemaVersion)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "subdir", "nested", "transcripts.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "transcripts.db")

	for i := 0; i < 2; i++ {
		db, err := Open(dbPath)
		if err != nil {
			t.Fatalf("Open() #%d error = %v", i, err)
		}
		_ = db.Close()
	}
}

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-test")

	if got := DefaultDataDir(); got != "/tmp/xdg-test/supportbot" {
		t.Errorf("DefaultDataDir() = %v, want /tmp/xdg-test/supportbot", got)
	}
	if got := DefaultDBPath(); got != "/tmp/xdg-test/supportbot/transcripts.db" {
		t.Errorf("DefaultDBPath() = %v", got)
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-test")

	tests := []struct {
		setting string
		want    string
	}{
		{"", "/tmp/xdg-test/supportbot/transcripts.db"},
		{"off", ""},
		{"none", ""},
		{"/var/lib/bot/t.db", "/var/lib/bot/t.db"},
	}

	for _, tt := range tests {
		t.Run(tt.setting, func(t *testing.T) {
			if got := ResolvePath(tt.setting); got != tt.want {
				t.Errorf("ResolvePath(%q) = %q, want %q", tt.setting, got, tt.want)
			}
		})
	}
}

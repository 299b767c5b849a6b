// ABOUTME: Tests for shared CLI utility functions
// ABOUTME: Covers truncation, relative time formatting, and reply rendering
package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harper/supportbot/internal/models"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is a long string", 10, "this is..."},
		{"abcdef", 3, "abc"},
		{"héllo wörld", 8, "héllo..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"just now", now.Add(-10 * time.Second), "just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-2 * 24 * time.Hour), "2d ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTime(tt.t); got != tt.want {
				t.Errorf("formatTime() = %q, want %q", got, tt.want)
			}
		})
	}

	old := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := formatTime(old); got != "2020-01-02" {
		t.Errorf("formatTime(old) = %q, want 2020-01-02", got)
	}
}

func TestValidatePositiveInt(t *testing.T) {
	if err := validatePositiveInt(1, "limit"); err != nil {
		t.Errorf("validatePositiveInt(1) error = %v", err)
	}
	if err := validatePositiveInt(0, "limit"); err == nil {
		t.Error("validatePositiveInt(0) should fail")
	}
}

func TestPlainMentions(t *testing.T) {
	got := plainMentions("<at>Sam Support</at>, <at>Pat Ops</at> - help")
	if got != "@Sam Support, @Pat Ops - help" {
		t.Errorf("plainMentions() = %q", got)
	}
}

func TestReplyRenderer_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	r := newReplyRenderer(&buf, "auto")
	if r.markdown != nil {
		t.Fatal("buffer output should not use markdown rendering")
	}
	if err := r.Render("<at>Ann</at> **Scan** the barcode"); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if buf.String() != "@Ann **Scan** the barcode\n\n" {
		t.Errorf("Render() wrote %q", buf.String())
	}
}

func TestReplyRenderer_Markdown(t *testing.T) {
	var buf bytes.Buffer
	r := newReplyRenderer(&buf, "markdown")
	if err := r.Render("# Title\n\nSome **bold** text"); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Title") || !strings.Contains(out, "bold") {
		t.Errorf("markdown render = %q", out)
	}
}

func TestSaveAttachments(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	replies := []models.OutboundMessage{
		{Text: "no chart"},
		{Text: "chart", Attachments: []models.Attachment{
			{ContentType: "image/png", Name: "chart.png", Data: []byte("PNG")},
			{ContentType: "image/png", Name: "empty.png"},
		}},
	}

	paths, err := saveAttachments(dir, replies)
	if err != nil {
		t.Fatalf("saveAttachments() error = %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("paths = %v, want 1 file", paths)
	}
	if !strings.HasSuffix(paths[0], "chart.png") {
		t.Errorf("path = %q", paths[0])
	}
	data, err := os.ReadFile(paths[0])
	if err != nil || string(data) != "PNG" {
		t.Errorf("file content = %q, %v", data, err)
	}
}

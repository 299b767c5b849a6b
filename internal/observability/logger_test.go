// ABOUTME: Tests for the structured logger helpers
// ABOUTME: Verifies context-carried ids and verbosity levels
package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(false, false)
	t.Cleanup(func() {
		SetOutput(nopWriter{})
		SetLevel(false, false)
	})
	return &buf
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestLoggerFromContext_AddsIDs(t *testing.T) {
	buf := captureLogs(t)

	ctx := WithConversation(context.Background(), "conv-1")
	ctx = WithActivity(ctx, "act-9")
	LoggerFromContext(ctx).Info("MessageReceived")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["conversation_id"] != "conv-1" {
		t.Errorf("conversation_id = %v, want conv-1", entry["conversation_id"])
	}
	if entry["activity_id"] != "act-9" {
		t.Errorf("activity_id = %v, want act-9", entry["activity_id"])
	}
	if entry["msg"] != "MessageReceived" {
		t.Errorf("msg = %v", entry["msg"])
	}
}

func TestLoggerFromContext_Empty(t *testing.T) {
	buf := captureLogs(t)

	LoggerFromContext(context.Background()).Info("plain")
	if strings.Contains(buf.String(), "conversation_id") {
		t.Errorf("unexpected conversation_id in %q", buf.String())
	}
}

func TestSetLevel(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		quiet     bool
		wantDebug bool
		wantInfo  bool
	}{
		{"default", false, false, false, true},
		{"verbose", true, false, true, true},
		{"quiet", false, true, false, false},
		{"quiet wins", true, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			SetLevel(tt.verbose, tt.quiet)

			Logger().Debug("debug-line")
			Logger().Info("info-line")

			if got := strings.Contains(buf.String(), "debug-line"); got != tt.wantDebug {
				t.Errorf("debug emitted = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(buf.String(), "info-line"); got != tt.wantInfo {
				t.Errorf("info emitted = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestWithFields(t *testing.T) {
	buf := captureLogs(t)

	WithFields("component", "ranker").Warn("fallback")
	if !strings.Contains(buf.String(), `"component":"ranker"`) {
		t.Errorf("missing component field in %q", buf.String())
	}
}

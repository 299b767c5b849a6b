// ABOUTME: Tests for the chunks and search commands
// ABOUTME: Runs both against a small knowledge file without any API access
package commands

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestChunksCmd(t *testing.T) {
	out, err := runCLI(t, "--knowledge", writeKnowledge(t), "chunks")
	if err != nil {
		t.Fatalf("chunks error = %v", err)
	}
	for _, want := range []string{"PREVIEW", "Trailer Check In", "Validator PIN", "2 chunk(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestChunksCmd_JSON(t *testing.T) {
	out, err := runCLI(t, "--knowledge", writeKnowledge(t), "--format", "json", "chunks")
	if err != nil {
		t.Fatalf("chunks error = %v", err)
	}

	var infos []chunkInfo
	if err := json.Unmarshal([]byte(out), &infos); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(infos) != 2 {
		t.Fatalf("chunks = %d, want 2", len(infos))
	}
	if infos[1].Index != 1 || !strings.HasPrefix(infos[1].Text, "Validator PIN") {
		t.Errorf("second chunk = %+v", infos[1])
	}
	if infos[0].Tokens <= 0 {
		t.Errorf("tokens = %d, want positive", infos[0].Tokens)
	}
}

func TestChunksCmd_MissingFile(t *testing.T) {
	_, err := runCLI(t, "--knowledge", "/nonexistent/knowledge.md", "chunks")
	if err == nil {
		t.Error("expected error for missing knowledge file")
	}
}

func TestSearchCmd(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "matching query",
			args:    []string{"search", "validator pin"},
			want:    []string{"SCORE", "Validator PIN", "Found 1 result(s)"},
			notWant: []string{"Trailer Check In"},
		},
		{
			name: "no match",
			args: []string{"search", "weather"},
			want: []string{"No chunks match", "fall back"},
		},
		{
			name: "all chunks",
			args: []string{"search", "--all", "weather"},
			want: []string{"Trailer Check In", "Validator PIN", "Found 2 result(s)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--knowledge", writeKnowledge(t)}, tt.args...)
			out, err := runCLI(t, args...)
			if err != nil {
				t.Fatalf("search error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output should not contain %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestSearchCmd_Validation(t *testing.T) {
	if _, err := runCLI(t, "--knowledge", writeKnowledge(t), "search", "--limit", "0", "pin"); err == nil {
		t.Error("expected error for --limit 0")
	}
	if _, err := runCLI(t, "search"); err == nil {
		t.Error("expected error without a query")
	}
}

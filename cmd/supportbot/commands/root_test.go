// ABOUTME: Tests for root CLI command and global flags
// ABOUTME: Verifies command structure, subcommands, and flag handling
package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testKnowledge = `# Trailer Check In
To check in a trailer, open the yard app and scan the trailer barcode at the gate.

# Validator PIN
Validator PINs are reset by the site administrator from the admin console.
`

// runCLI executes the root command with args and returns combined output
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// writeKnowledge writes the test knowledge base and returns its path
func writeKnowledge(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knowledge.md")
	if err := os.WriteFile(path, []byte(testKnowledge), 0644); err != nil {
		t.Fatalf("write knowledge: %v", err)
	}
	return path
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	if cmd.Use != "supportbot" {
		t.Errorf("Use = %q, want %q", cmd.Use, "supportbot")
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	if !strings.Contains(cmd.Long, "███") {
		t.Error("Long description should contain ASCII banner")
	}
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	cmd := NewRootCmd()

	tests := []struct {
		flagName  string
		shorthand string
		defValue  string
	}{
		{"verbose", "v", "false"},
		{"quiet", "q", "false"},
		{"format", "", "auto"},
		{"knowledge", "", ""},
		{"db", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.flagName, func(t *testing.T) {
			flag := cmd.PersistentFlags().Lookup(tt.flagName)
			if flag == nil {
				t.Fatalf("--%s flag not found", tt.flagName)
			}

			if tt.shorthand != "" && flag.Shorthand != tt.shorthand {
				t.Errorf("--%s shorthand = %q, want %q", tt.flagName, flag.Shorthand, tt.shorthand)
			}

			if flag.DefValue != tt.defValue {
				t.Errorf("--%s default = %q, want %q", tt.flagName, flag.DefValue, tt.defValue)
			}
		})
	}
}

func TestRootCmd_FlagValidation(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectError bool
	}{
		{
			name:        "verbose only",
			args:        []string{"--verbose", "version"},
			expectError: false,
		},
		{
			name:        "quiet only",
			args:        []string{"--quiet", "version"},
			expectError: false,
		},
		{
			name:        "verbose and quiet",
			args:        []string{"--verbose", "--quiet", "version"},
			expectError: true,
		},
		{
			name:        "json format",
			args:        []string{"--format", "json", "version"},
			expectError: false,
		},
		{
			name:        "unknown format",
			args:        []string{"--format", "xml", "version"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			if (err != nil) != tt.expectError {
				t.Errorf("error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	expected := []string{"serve", "ask", "chat", "chunks", "search", "history", "escalations", "export", "mcp", "version"}
	for _, name := range expected {
		t.Run(name, func(t *testing.T) {
			found := false
			for _, sub := range cmd.Commands() {
				if sub.Name() == name {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("subcommand %q not registered", name)
			}
		})
	}
}

func TestVersionCmd(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2025-01-01")
	defer SetVersion("dev", "none", "unknown")

	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	for _, want := range []string{"SupportBot 1.2.3", "Commit: abc123", "Built:  2025-01-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVersionCmd_JSON(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2025-01-01")
	defer SetVersion("dev", "none", "unknown")

	out, err := runCLI(t, "--format", "json", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	var info VersionInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" || info.Go == "" {
		t.Errorf("info = %+v", info)
	}
}

func TestAskCmd_NeedsAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("SECRET_OPENAI_API_KEY", "")

	_, err := runCLI(t, "--knowledge", writeKnowledge(t), "--db", "off", "ask", "hello")
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("ask without key error = %v, want OPENAI_API_KEY hint", err)
	}
}

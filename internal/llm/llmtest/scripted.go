// ABOUTME: Scripted chat and vision fake for tests that exercise LLM-driven flows
// ABOUTME: Matches scripts against the system prompt and records every call for verification
package llmtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/harper/supportbot/internal/models"
)

// ErrNoScript is returned in strict mode when no script matches a call
var ErrNoScript = errors.New("llmtest: no script matched")

// Script is one canned response. An empty Match matches any call.
type Script struct {
	// Match is a substring looked for in the system message, or in the
	// user message when the call has no system message
	Match    string
	Response string
	Err      error
	// Once scripts are consumed after their first use
	Once bool
}

// Call records one Complete or ExtractText invocation
type Call struct {
	Messages []models.ContextMessage
	Params   models.ModelParams
	Image    string
	Prompt   string
}

// System returns the system message of the call, if any
func (c Call) System() string {
	for _, m := range c.Messages {
		if m.Role == models.RoleSystem {
			return m.Content
		}
	}
	return ""
}

// LastUser returns the content of the final user message
func (c Call) LastUser() string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == models.RoleUser {
			return c.Messages[i].Content
		}
	}
	return ""
}

// ScriptedLLM satisfies the chat and vision interfaces used by the core
type ScriptedLLM struct {
	mu       sync.Mutex
	scripts  []*Script
	used     map[*Script]bool
	calls    []Call
	vision   []Call
	fallback string
	strict   bool
}

// New creates a ScriptedLLM that answers unmatched calls with fallback
func New(fallback string) *ScriptedLLM {
	return &ScriptedLLM{fallback: fallback, used: make(map[*Script]bool)}
}

// Strict returns a ScriptedLLM that errors on unmatched calls
func Strict() *ScriptedLLM {
	return &ScriptedLLM{strict: true, used: make(map[*Script]bool)}
}

// On adds a repeatable script
func (s *ScriptedLLM) On(match, response string) *ScriptedLLM {
	return s.Add(Script{Match: match, Response: response})
}

// OnError adds a repeatable failing script
func (s *ScriptedLLM) OnError(match string, err error) *ScriptedLLM {
	return s.Add(Script{Match: match, Err: err})
}

// Add appends a script; earlier scripts win
func (s *ScriptedLLM) Add(script Script) *ScriptedLLM {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := script
	s.scripts = append(s.scripts, &sc)
	return s
}

// Complete implements the chat completion interface
func (s *ScriptedLLM) Complete(ctx context.Context, messages []models.ContextMessage, params models.ModelParams) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	call := Call{Messages: append([]models.ContextMessage(nil), messages...), Params: params}
	s.calls = append(s.calls, call)

	key := call.System()
	if key == "" {
		key = call.LastUser()
	}
	return s.respond(key)
}

// ExtractText implements the vision interface
func (s *ScriptedLLM) ExtractText(ctx context.Context, imageBase64, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.vision = append(s.vision, Call{Image: imageBase64, Prompt: prompt})
	return s.respond(prompt)
}

func (s *ScriptedLLM) respond(key string) (string, error) {
	for _, sc := range s.scripts {
		if sc.Once && s.used[sc] {
			continue
		}
		if sc.Match != "" && !strings.Contains(key, sc.Match) {
			continue
		}
		s.used[sc] = true
		return sc.Response, sc.Err
	}
	if s.strict {
		return "", fmt.Errorf("%w: %.60q", ErrNoScript, key)
	}
	return s.fallback, nil
}

// Calls returns a copy of recorded completion calls
func (s *ScriptedLLM) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// VisionCalls returns a copy of recorded vision calls
func (s *ScriptedLLM) VisionCalls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.vision...)
}

// CallsMatching returns completion calls whose system message contains substr
func (s *ScriptedLLM) CallsMatching(substr string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if strings.Contains(c.System(), substr) {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears recorded calls but keeps scripts
func (s *ScriptedLLM) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
	s.vision = nil
}

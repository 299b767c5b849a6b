// ABOUTME: Tests for the scripted LLM fake
// ABOUTME: Verifies matching order, one-shot scripts, strict mode, and call recording
package llmtest

import (
	"context"
	"errors"
	"testing"

	"github.com/harper/supportbot/internal/models"
)

func sys(content, user string) []models.ContextMessage {
	return []models.ContextMessage{
		{Role: models.RoleSystem, Content: content},
		{Role: models.RoleUser, Content: user},
	}
}

func TestScriptedLLM_MatchesSystemPrompt(t *testing.T) {
	s := New("fallback").On("summarizer", "a summary").On("Detect the language", "en")
	ctx := context.Background()

	got, _ := s.Complete(ctx, sys("You are a conversation summarizer.", "x"), models.ModelParams{})
	if got != "a summary" {
		t.Errorf("got %q, want a summary", got)
	}
	got, _ = s.Complete(ctx, sys("nothing relevant", "x"), models.ModelParams{})
	if got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}
	if len(s.Calls()) != 2 {
		t.Errorf("calls = %d, want 2", len(s.Calls()))
	}
	if len(s.CallsMatching("summarizer")) != 1 {
		t.Error("expected one summarizer call")
	}
}

func TestScriptedLLM_UserMessageWhenNoSystem(t *testing.T) {
	s := Strict().On("Translate", "hola")
	got, err := s.Complete(context.Background(), []models.ContextMessage{{Role: models.RoleUser, Content: "Translate the following text to es"}}, models.ModelParams{})
	if err != nil || got != "hola" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestScriptedLLM_OnceAndStrict(t *testing.T) {
	s := Strict().Add(Script{Match: "x", Response: "first", Once: true})
	ctx := context.Background()

	if got, err := s.Complete(ctx, sys("x", "q"), models.ModelParams{}); err != nil || got != "first" {
		t.Fatalf("first call = %q, %v", got, err)
	}
	if _, err := s.Complete(ctx, sys("x", "q"), models.ModelParams{}); !errors.Is(err, ErrNoScript) {
		t.Errorf("second call err = %v, want ErrNoScript", err)
	}
}

func TestScriptedLLM_Error(t *testing.T) {
	boom := errors.New("boom")
	s := New("").OnError("", boom)
	if _, err := s.Complete(context.Background(), sys("a", "b"), models.ModelParams{}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestScriptedLLM_Vision(t *testing.T) {
	s := New("").On("Please extract", "Question: q")
	got, err := s.ExtractText(context.Background(), "b64", "Please extract and return")
	if err != nil || got != "Question: q" {
		t.Errorf("got %q, %v", got, err)
	}
	vc := s.VisionCalls()
	if len(vc) != 1 || vc[0].Image != "b64" {
		t.Errorf("vision calls = %+v", vc)
	}
}

func TestScriptedLLM_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New("x").Complete(ctx, nil, models.ModelParams{}); err == nil {
		t.Error("expected context error")
	}
}

// ABOUTME: Tests for ContextCompactor summarization, caching, and token budget
// ABOUTME: Uses the scripted LLM to observe summary calls
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/harper/supportbot/internal/llm/llmtest"
	"github.com/harper/supportbot/internal/models"
)

func makeHistory(n, size int) []models.Turn {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	turns := make([]models.Turn, n)
	for i := range turns {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		content := fmt.Sprintf("m%02d ", i)
		if size > len(content) {
			content += strings.Repeat("x", size-len(content))
		}
		turns[i] = models.Turn{
			TurnID:    fmt.Sprintf("turn_%02d", i),
			Role:      role,
			Content:   content,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return turns
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("a", 400), 100},
		{"ñññññ", 2},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestBoundedContext_ShortHistoryVerbatim(t *testing.T) {
	fake := llmtest.Strict()
	c := NewContextCompactor(fake, "m", 6, quietLogger())

	history := makeHistory(4, 20)
	got := c.BoundedContext(context.Background(), "c1", history, 1500)

	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	for i, m := range got {
		if m.Content != history[i].Content {
			t.Errorf("message %d content = %q", i, m.Content)
		}
	}
	if got[0].Role != models.RoleUser || got[1].Role != models.RoleAssistant {
		t.Errorf("roles = %s, %s", got[0].Role, got[1].Role)
	}
	if len(fake.Calls()) != 0 {
		t.Error("short history must not be summarized")
	}
}

func TestBoundedContext_SummarizesOldTurns(t *testing.T) {
	fake := llmtest.Strict().On("conversation summarizer", "User asked about trailer check in.")
	c := NewContextCompactor(fake, "gpt-test", 6, quietLogger())

	history := makeHistory(10, 20)
	got := c.BoundedContext(context.Background(), "c1", history, 1500)

	if len(got) != 7 {
		t.Fatalf("len = %d, want summary + 6 recent", len(got))
	}
	if got[0].Role != models.RoleSystem || got[0].Content != "Previous conversation summary: User asked about trailer check in." {
		t.Errorf("summary message = %+v", got[0])
	}
	if got[1].Content != history[4].Content || got[6].Content != history[9].Content {
		t.Error("recent window should be the last 6 turns verbatim")
	}

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("summary calls = %d, want 1", len(calls))
	}
	p := calls[0].Params
	if p.Model != "gpt-test" || p.Temperature != float32(0.3) || p.MaxTokens != 150 {
		t.Errorf("summary params = %+v", p)
	}
	prompt := calls[0].LastUser()
	if !strings.Contains(prompt, "User: "+history[0].Content) || !strings.Contains(prompt, "Assistant: "+history[3].Content) {
		t.Errorf("summary prompt missing old turns: %s", prompt)
	}
	if strings.Contains(prompt, history[4].Content) {
		t.Error("summary prompt must not include recent turns")
	}
}

func TestBoundedContext_SummaryCache(t *testing.T) {
	fake := llmtest.New("summary")
	c := NewContextCompactor(fake, "m", 6, quietLogger())
	ctx := context.Background()

	history := makeHistory(20, 10)
	c.BoundedContext(ctx, "c1", history, 1500)
	c.BoundedContext(ctx, "c1", history, 1500)
	if n := len(fake.Calls()); n != 1 {
		t.Errorf("unchanged history: summary calls = %d, want 1", n)
	}

	// Same length, window slid forward by two turns
	slid := makeHistory(22, 10)[2:]
	c.BoundedContext(ctx, "c1", slid, 1500)
	if n := len(fake.Calls()); n != 2 {
		t.Errorf("slid window: summary calls = %d, want 2", n)
	}

	c.BoundedContext(ctx, "c2", history, 1500)
	if n := len(fake.Calls()); n != 3 {
		t.Errorf("other conversation: summary calls = %d, want 3", n)
	}
	if c.CachedSummaries() != 3 {
		t.Errorf("CachedSummaries() = %d, want 3", c.CachedSummaries())
	}
}

func TestBoundedContext_SummaryFailureFallsBack(t *testing.T) {
	fake := llmtest.New("").OnError("summarizer", errors.New("rate limited"))
	c := NewContextCompactor(fake, "m", 6, quietLogger())

	history := makeHistory(12, 20)
	got := c.BoundedContext(context.Background(), "c1", history, 1500)

	if len(got) != 6 {
		t.Fatalf("len = %d, want recent window of 6", len(got))
	}
	for _, m := range got {
		if m.Role == models.RoleSystem {
			t.Error("no summary message expected after failure")
		}
	}
	if got[5].Content != history[11].Content {
		t.Error("newest turn should be last")
	}
	if c.CachedSummaries() != 0 {
		t.Error("failed summaries must not be cached")
	}
}

func TestBoundedContext_EmptySummaryOmitted(t *testing.T) {
	fake := llmtest.New("   ")
	c := NewContextCompactor(fake, "m", 6, quietLogger())

	got := c.BoundedContext(context.Background(), "c1", makeHistory(8, 10), 1500)
	if len(got) != 6 || got[0].Role == models.RoleSystem {
		t.Errorf("expected only recent messages, got %+v", got)
	}
}

func TestBoundedContext_TokenBudget(t *testing.T) {
	fake := llmtest.New("short summary")
	c := NewContextCompactor(fake, "m", 6, quietLogger())

	history := makeHistory(20, 400)
	got := c.BoundedContext(context.Background(), "c1", history, 250)

	if len(got) < 1 || len(got) > 3 {
		t.Fatalf("len = %d, want 1-3 trailing messages", len(got))
	}
	if got[len(got)-1].Content != history[19].Content {
		t.Error("most recent message must always be included")
	}
	total := 0
	for _, m := range got {
		total += EstimateTokens(m.Content)
	}
	if total > 250 {
		t.Errorf("total tokens = %d exceeds budget", total)
	}
}

func TestBoundedContext_KeepsOversizedNewestMessage(t *testing.T) {
	c := NewContextCompactor(llmtest.Strict(), "m", 6, quietLogger())

	history := makeHistory(3, 2000)
	got := c.BoundedContext(context.Background(), "c1", history, 100)
	if len(got) != 1 || got[0].Content != history[2].Content {
		t.Errorf("expected only the newest message, got %d messages", len(got))
	}
}

func TestBoundedContext_EmptyHistory(t *testing.T) {
	c := NewContextCompactor(llmtest.Strict(), "m", 6, quietLogger())
	if got := c.BoundedContext(context.Background(), "c1", nil, 100); len(got) != 0 {
		t.Errorf("expected empty context, got %+v", got)
	}
}

func TestSummaryCacheTrim(t *testing.T) {
	c := NewContextCompactor(nil, "m", 6, quietLogger())
	for i := 0; i < summaryCacheLimit; i++ {
		c.store(fmt.Sprintf("k%03d", i), "s")
	}
	if c.CachedSummaries() != summaryCacheLimit {
		t.Fatalf("CachedSummaries() = %d, want %d", c.CachedSummaries(), summaryCacheLimit)
	}

	c.store("overflow", "s")
	if c.CachedSummaries() != summaryCacheKeep {
		t.Errorf("CachedSummaries() = %d, want %d", c.CachedSummaries(), summaryCacheKeep)
	}

	c.mu.Lock()
	_, newest := c.summaries["overflow"]
	_, oldest := c.summaries["k000"]
	_, kept := c.summaries[fmt.Sprintf("k%03d", summaryCacheLimit-summaryCacheKeep+1)]
	c.mu.Unlock()
	if !newest || oldest || !kept {
		t.Errorf("trim should keep the most recently inserted entries (newest=%v oldest=%v kept=%v)", newest, oldest, kept)
	}
}

// ABOUTME: Tests for KnowledgeBase loading and the chromem-backed semantic ranker
// ABOUTME: Uses a deterministic bag-of-words embedding so similarity is predictable
package core

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var testVocab = []string{"trailer", "check", "yard", "validator", "pin", "hours"}

// bagOfWordsEmbed counts vocabulary hits plus a small constant dimension, normalized
func bagOfWordsEmbed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, len(testVocab)+1)
	for i, w := range testVocab {
		vec[i] = float32(strings.Count(lower, w))
	}
	vec[len(testVocab)] = 0.01

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

const sampleKnowledge = `# Trailer check in
Drivers check in the trailer at the yard kiosk.

# Validator PIN
The yard validator PIN is printed on the badge.

# Hours
The site is open from 6am to 10pm.`

func TestNewKnowledgeBase(t *testing.T) {
	kb, err := NewKnowledgeBase("inline", sampleKnowledge, NewChunkEngine(500), quietLogger())
	if err != nil {
		t.Fatalf("NewKnowledgeBase() error = %v", err)
	}
	if kb.Len() != 3 {
		t.Errorf("Len() = %d, want 3", kb.Len())
	}
	if kb.Mode() != "lexical" {
		t.Errorf("Mode() = %s, want lexical", kb.Mode())
	}

	got := kb.Retrieve(context.Background(), "validator pin", 3)
	if len(got) == 0 || !strings.HasPrefix(got[0], "Validator PIN") {
		t.Errorf("Retrieve() = %q", got)
	}
}

func TestNewKnowledgeBase_Empty(t *testing.T) {
	if _, err := NewKnowledgeBase("inline", "  \n", nil, quietLogger()); !errors.Is(err, ErrEmptyKnowledge) {
		t.Errorf("error = %v, want ErrEmptyKnowledge", err)
	}
}

func TestLoadKnowledgeBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.md")
	if err := os.WriteFile(path, []byte(sampleKnowledge), 0o644); err != nil {
		t.Fatal(err)
	}

	kb, err := LoadKnowledgeBase(path, NewChunkEngine(500), quietLogger())
	if err != nil {
		t.Fatalf("LoadKnowledgeBase() error = %v", err)
	}
	if kb.Source() != path {
		t.Errorf("Source() = %s", kb.Source())
	}

	if _, err := LoadKnowledgeBase(filepath.Join(t.TempDir(), "missing.md"), nil, quietLogger()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestChunksReturnsCopy(t *testing.T) {
	kb, _ := NewKnowledgeBase("inline", sampleKnowledge, nil, quietLogger())
	c := kb.Chunks()
	c[0] = "mutated"
	if kb.Chunks()[0] == "mutated" {
		t.Error("Chunks() must not expose internal storage")
	}
}

func TestEnableSemantic(t *testing.T) {
	kb, _ := NewKnowledgeBase("inline", sampleKnowledge, nil, quietLogger())
	if err := kb.EnableSemantic(context.Background(), bagOfWordsEmbed); err != nil {
		t.Fatalf("EnableSemantic() error = %v", err)
	}
	if kb.Mode() != "semantic" {
		t.Errorf("Mode() = %s, want semantic", kb.Mode())
	}

	got := kb.Retrieve(context.Background(), "validator pin", 2)
	if len(got) == 0 || !strings.HasPrefix(got[0], "Validator PIN") {
		t.Errorf("Retrieve() = %q", got)
	}
	if len(got) > 2 {
		t.Errorf("Retrieve() returned %d chunks, want at most 2", len(got))
	}
}

func TestSemanticRanker_FallsBackToLexical(t *testing.T) {
	chunks := []string{"trailer check in process", "yard validator PIN", "unrelated text"}
	const query = "trailer check in"

	embed := func(ctx context.Context, text string) ([]float32, error) {
		if text == query {
			return nil, errors.New("embedding service down")
		}
		return bagOfWordsEmbed(ctx, text)
	}

	sr, err := NewSemanticRanker(context.Background(), chunks, embed, nil, quietLogger())
	if err != nil {
		t.Fatalf("NewSemanticRanker() error = %v", err)
	}

	got := sr.Retrieve(context.Background(), query, 3)
	if len(got) != 1 || got[0] != chunks[0] {
		t.Errorf("Retrieve() = %q, want lexical result", got)
	}
}

func TestSemanticRanker_IndexError(t *testing.T) {
	embed := func(context.Context, string) ([]float32, error) {
		return nil, errors.New("no embeddings")
	}
	if _, err := NewSemanticRanker(context.Background(), []string{"a"}, embed, nil, quietLogger()); err == nil {
		t.Error("expected indexing error")
	}
}

// ABOUTME: LexicalRanker scores knowledge chunks against a query by keyword overlap
// ABOUTME: Falls back to the first chunks in document order on any internal failure
package core

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunks is the default number of chunks returned per query
const DefaultMaxChunks = 3

// minTokenLength is the shortest query token that contributes to a score
const minTokenLength = 3

// ScoredChunk is a chunk with its relevance score and original position
type ScoredChunk struct {
	Chunk string
	Score int
	Index int
}

type scoreFunc func(query string, chunks []string) ([]ScoredChunk, error)

// LexicalRanker ranks chunks by weighted keyword occurrences
type LexicalRanker struct {
	logger *slog.Logger
	score  scoreFunc
}

// NewLexicalRanker creates a ranker
func NewLexicalRanker(logger *slog.Logger) *LexicalRanker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LexicalRanker{
		logger: logger.With("component", "ranker"),
		score:  scoreChunks,
	}
}

// FindRelevant returns up to maxChunks chunks with a positive score, best first.
// Equal scores keep document order. It never fails: errors and panics while
// scoring yield the first maxChunks chunks instead.
func (r *LexicalRanker) FindRelevant(query string, chunks []string, maxChunks int) (result []string) {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("ranking panicked, using leading chunks", "panic", fmt.Sprint(p))
			result = leadingChunks(chunks, maxChunks)
		}
	}()

	scored, err := r.score(query, chunks)
	if err != nil {
		r.logger.Error("ranking failed, using leading chunks", "error", err)
		return leadingChunks(chunks, maxChunks)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > maxChunks {
		scored = scored[:maxChunks]
	}

	result = make([]string, 0, len(scored))
	for _, s := range scored {
		result = append(result, s.Chunk)
	}

	r.logger.Debug("found relevant chunks", "query", query, "count", len(result))
	return result
}

// Score exposes per-chunk scores in document order, including zero scores
func (r *LexicalRanker) Score(query string, chunks []string) ([]ScoredChunk, error) {
	patterns, err := tokenPatterns(query)
	if err != nil {
		return nil, err
	}
	out := make([]ScoredChunk, len(chunks))
	for i, c := range chunks {
		out[i] = ScoredChunk{Chunk: c, Score: scoreChunk(c, query, patterns), Index: i}
	}
	return out, nil
}

type tokenPattern struct {
	re     *regexp.Regexp
	weight int
}

// scoreChunks keeps only chunks with a positive score, in document order
func scoreChunks(query string, chunks []string) ([]ScoredChunk, error) {
	patterns, err := tokenPatterns(query)
	if err != nil {
		return nil, err
	}

	var scored []ScoredChunk
	for i, chunk := range chunks {
		if s := scoreChunk(chunk, query, patterns); s > 0 {
			scored = append(scored, ScoredChunk{Chunk: chunk, Score: s, Index: i})
		}
	}
	return scored, nil
}

// tokenPatterns compiles a case-insensitive leading-word-boundary pattern per query token
func tokenPatterns(query string) ([]tokenPattern, error) {
	var patterns []tokenPattern
	for _, token := range strings.Fields(strings.ToLower(query)) {
		n := utf8.RuneCountInString(token)
		if n < minTokenLength {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(token))
		if err != nil {
			return nil, fmt.Errorf("compile token %q: %w", token, err)
		}
		patterns = append(patterns, tokenPattern{re: re, weight: n})
	}
	return patterns, nil
}

func scoreChunk(chunk, query string, patterns []tokenPattern) int {
	score := 0
	for _, p := range patterns {
		score += len(p.re.FindAllStringIndex(chunk, -1)) * p.weight
	}
	if query != "" && strings.Contains(strings.ToLower(chunk), strings.ToLower(query)) {
		score += utf8.RuneCountInString(query) * 2
	}
	return score
}

func leadingChunks(chunks []string, n int) []string {
	if n > len(chunks) {
		n = len(chunks)
	}
	out := make([]string, n)
	copy(out, chunks[:n])
	return out
}

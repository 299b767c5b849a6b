// ABOUTME: SemanticRanker retrieves knowledge chunks by embedding similarity via chromem-go
// ABOUTME: Falls back to the lexical ranker whenever the vector query fails
package core

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/philippgille/chromem-go"
)

const knowledgeCollection = "knowledge"

// SemanticRanker holds an in-memory vector index of the knowledge chunks
type SemanticRanker struct {
	collection *chromem.Collection
	chunks     []string
	fallback   *LexicalRanker
	logger     *slog.Logger
}

// NewSemanticRanker embeds every chunk into a fresh in-memory collection
func NewSemanticRanker(ctx context.Context, chunks []string, embed chromem.EmbeddingFunc, fallback *LexicalRanker, logger *slog.Logger) (*SemanticRanker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if fallback == nil {
		fallback = NewLexicalRanker(logger)
	}

	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(knowledgeCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("get or create collection: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:       chunkID(i),
			Content:  c,
			Metadata: map[string]string{"index": strconv.Itoa(i)},
		}
	}
	if len(docs) > 0 {
		if err := col.AddDocuments(ctx, docs, 1); err != nil {
			return nil, fmt.Errorf("index knowledge chunks: %w", err)
		}
	}

	return &SemanticRanker{
		collection: col,
		chunks:     chunks,
		fallback:   fallback,
		logger:     logger.With("component", "semantic_ranker"),
	}, nil
}

// Retrieve returns up to maxChunks chunks ordered by similarity
func (s *SemanticRanker) Retrieve(ctx context.Context, query string, maxChunks int) []string {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}

	n := maxChunks
	if count := s.collection.Count(); n > count {
		n = count
	}
	if n == 0 {
		return nil
	}

	results, err := s.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		s.logger.Warn("vector query failed, using lexical ranking", "error", err)
		return s.fallback.FindRelevant(query, s.chunks, maxChunks)
	}

	out := make([]string, 0, len(results))
	for _, r := range results {
		if r.Similarity <= 0 {
			continue
		}
		out = append(out, r.Content)
	}
	return out
}

func chunkID(i int) string {
	return fmt.Sprintf("chunk-%04d", i)
}

// ABOUTME: KnowledgeBase loads the support document, chunks it, and serves retrieval
// ABOUTME: Lexical ranking by default, semantic ranking when embeddings are enabled
package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/philippgille/chromem-go"
)

// KnowledgeBase is the immutable chunked knowledge document
type KnowledgeBase struct {
	source   string
	chunks   []string
	lexical  *LexicalRanker
	semantic *SemanticRanker
	logger   *slog.Logger
}

// LoadKnowledgeBase reads and chunks the document at path
func LoadKnowledgeBase(path string, engine *ChunkEngine, logger *slog.Logger) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base: %w", err)
	}
	return NewKnowledgeBase(path, string(data), engine, logger)
}

// NewKnowledgeBase chunks text held in memory
func NewKnowledgeBase(source, text string, engine *ChunkEngine, logger *slog.Logger) (*KnowledgeBase, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if engine == nil {
		engine = NewChunkEngine(DefaultChunkSize)
	}

	chunks, err := engine.Chunk(text)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", source, err)
	}

	logger.Info("knowledge base loaded", "source", source, "chunks", len(chunks))
	return &KnowledgeBase{
		source:  source,
		chunks:  chunks,
		lexical: NewLexicalRanker(logger),
		logger:  logger,
	}, nil
}

// Source returns where the knowledge was loaded from
func (kb *KnowledgeBase) Source() string {
	return kb.source
}

// Chunks returns a copy of the chunk list
func (kb *KnowledgeBase) Chunks() []string {
	return append([]string(nil), kb.chunks...)
}

// Len returns the number of chunks
func (kb *KnowledgeBase) Len() int {
	return len(kb.chunks)
}

// EnableSemantic builds the vector index; on failure lexical ranking stays active
func (kb *KnowledgeBase) EnableSemantic(ctx context.Context, embed chromem.EmbeddingFunc) error {
	sr, err := NewSemanticRanker(ctx, kb.chunks, embed, kb.lexical, kb.logger)
	if err != nil {
		return err
	}
	kb.semantic = sr
	return nil
}

// Mode reports the active retrieval mode
func (kb *KnowledgeBase) Mode() string {
	if kb.semantic != nil {
		return "semantic"
	}
	return "lexical"
}

// Retrieve implements Retriever
func (kb *KnowledgeBase) Retrieve(ctx context.Context, query string, maxChunks int) []string {
	if kb.semantic != nil {
		return kb.semantic.Retrieve(ctx, query, maxChunks)
	}
	return kb.lexical.FindRelevant(query, kb.chunks, maxChunks)
}

// Score exposes lexical scores for diagnostics
func (kb *KnowledgeBase) Score(query string) ([]ScoredChunk, error) {
	return kb.lexical.Score(query, kb.chunks)
}

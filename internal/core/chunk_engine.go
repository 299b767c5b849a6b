// ABOUTME: ChunkEngine splits a knowledge document into bounded-size retrieval chunks
// ABOUTME: Implements heading → paragraph splitting with greedy paragraph packing
package core

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the soft upper bound on chunk length in characters
const DefaultChunkSize = 500

// ErrEmptyKnowledge is returned when a knowledge document has no content
var ErrEmptyKnowledge = errors.New("knowledge document is empty")

// headingPattern matches #, ## and ### markers at the start of a line
var headingPattern = regexp.MustCompile(`(?m)^#{1,3}\s+`)

// ChunkEngine handles knowledge document chunking
type ChunkEngine struct {
	maxSize int
}

// NewChunkEngine creates a ChunkEngine; non-positive sizes use DefaultChunkSize
func NewChunkEngine(maxSize int) *ChunkEngine {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}
	return &ChunkEngine{maxSize: maxSize}
}

// MaxSize returns the configured chunk size bound
func (ce *ChunkEngine) MaxSize() int {
	return ce.maxSize
}

// Chunk splits text into ordered chunks. Sections that fit are emitted whole;
// larger ones are packed paragraph by paragraph. A single paragraph longer
// than the bound is emitted as is.
func (ce *ChunkEngine) Chunk(text string) ([]string, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyKnowledge
	}

	var chunks []string
	for _, section := range splitSections(text) {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}

		if utf8.RuneCountInString(section) <= ce.maxSize {
			chunks = append(chunks, section)
			continue
		}

		chunks = append(chunks, ce.packParagraphs(splitParagraphs(section))...)
	}

	if len(chunks) == 0 {
		return nil, ErrEmptyKnowledge
	}
	return chunks, nil
}

// packParagraphs greedily accumulates paragraphs while the joined length stays in bounds
func (ce *ChunkEngine) packParagraphs(paragraphs []string) []string {
	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
		}
		current.Reset()
		currentLen = 0
	}

	for _, para := range paragraphs {
		paraLen := utf8.RuneCountInString(para)

		if currentLen == 0 {
			current.WriteString(para)
			currentLen = paraLen
			continue
		}

		// "\n\n" separator counts toward the bound
		if currentLen+2+paraLen <= ce.maxSize {
			current.WriteString("\n\n")
			current.WriteString(para)
			currentLen += 2 + paraLen
			continue
		}

		flush()
		current.WriteString(para)
		currentLen = paraLen
	}
	flush()

	return chunks
}

// splitSections splits text on heading markers, keeping heading titles with their bodies
func splitSections(text string) []string {
	return headingPattern.Split(text, -1)
}

// splitParagraphs splits text by blank lines and drops empty paragraphs
func splitParagraphs(text string) []string {
	var result []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para != "" {
			result = append(result, para)
		}
	}
	return result
}

// ABOUTME: Interfaces for the external collaborators the core depends on
// ABOUTME: Implemented by the OpenAI client, chart renderers, transports, and fetchers
package core

import (
	"context"

	"github.com/harper/supportbot/internal/models"
)

// ChatCompleter runs one chat completion and returns the raw model output
type ChatCompleter interface {
	Complete(ctx context.Context, messages []models.ContextMessage, params models.ModelParams) (string, error)
}

// VisionReader extracts text from a base64-encoded image
type VisionReader interface {
	ExtractText(ctx context.Context, imageBase64, prompt string) (string, error)
}

// Image is a rendered chart
type Image struct {
	Data        []byte
	ContentType string
	Name        string
}

// ChartRenderer turns a dataset into an image
type ChartRenderer interface {
	Render(ctx context.Context, data models.Dataset, chartType, title string) (*Image, error)
}

// Transport delivers outbound activities to the messaging platform
type Transport interface {
	Send(ctx context.Context, msg models.OutboundMessage) error
}

// ImageFetcher downloads the bytes behind an inbound attachment
type ImageFetcher interface {
	Fetch(ctx context.Context, attachment models.Attachment) ([]byte, error)
}

// Retriever returns the knowledge chunks most relevant to a query
type Retriever interface {
	Retrieve(ctx context.Context, query string, maxChunks int) []string
}

// Escalation describes a hand-off to human support
type Escalation struct {
	ConversationID string
	UserName       string
	Query          string
	Reason         string
}

// TranscriptRecorder archives handled exchanges; failures are logged, never fatal
type TranscriptRecorder interface {
	RecordTurns(ctx context.Context, conversationID string, turns ...models.Turn) error
	RecordEscalation(ctx context.Context, e Escalation) error
}

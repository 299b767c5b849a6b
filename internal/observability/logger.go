// ABOUTME: Process-wide structured logger built on log/slog
// ABOUTME: Carries conversation and activity ids through context for correlated log lines
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type ctxKey string

const (
	ctxKeyConversationID ctxKey = "conversation_id"
	ctxKeyActivityID     ctxKey = "activity_id"
)

var (
	level = new(slog.LevelVar)
	// stderr keeps stdout free for the MCP stdio transport and CLI output
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
)

func Logger() *slog.Logger {
	return logger
}

// SetOutput replaces the handler, keeping the shared level.
func SetOutput(w io.Writer) {
	logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetLevel maps the CLI verbosity flags onto a log level.
func SetLevel(verbose, quiet bool) {
	switch {
	case quiet:
		level.Set(slog.LevelError)
	case verbose:
		level.Set(slog.LevelDebug)
	default:
		level.Set(slog.LevelInfo)
	}
}

// WithFields returns a logger with additional fields.
func WithFields(kv ...any) *slog.Logger {
	return logger.With(kv...)
}

// WithConversation stores a conversation id in the context.
func WithConversation(ctx context.Context, conversationID string) context.Context {
	return context.WithValue(ctx, ctxKeyConversationID, conversationID)
}

// WithActivity stores the inbound activity id in the context.
func WithActivity(ctx context.Context, activityID string) context.Context {
	return context.WithValue(ctx, ctxKeyActivityID, activityID)
}

// LoggerFromContext adds conversation_id and activity_id if present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	l := logger
	if id, _ := ctx.Value(ctxKeyConversationID).(string); id != "" {
		l = l.With("conversation_id", id)
	}
	if id, _ := ctx.Value(ctxKeyActivityID).(string); id != "" {
		l = l.With("activity_id", id)
	}
	return l
}

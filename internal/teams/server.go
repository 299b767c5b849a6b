// ABOUTME: HTTP endpoint for Bot Framework activities plus a health check
// ABOUTME: Acknowledges activities immediately and processes each conversation's activities in order
package teams

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/harper/supportbot/internal/core"
	"github.com/harper/supportbot/internal/models"
)

const (
	maxActivityBytes = 1 << 20
	// handleTimeout bounds the processing of one activity
	handleTimeout = 2 * time.Minute
)

// Bot is the message handling surface the server drives
type Bot interface {
	HandleMessage(ctx context.Context, msg models.InboundMessage) error
	Welcome(ctx context.Context, conversationID string) error
	Stats() core.Stats
}

type job struct {
	kind string
	fn   func(ctx context.Context) error
}

// Server routes activities to the bot
type Server struct {
	bot       Bot
	connector *Connector
	logger    *slog.Logger
	wg        sync.WaitGroup

	mu sync.Mutex
	// queues holds pending jobs per conversation; a key exists while its worker runs
	queues map[string][]job
}

// NewServer creates a server; connector may be nil when replies go elsewhere
func NewServer(bot Bot, connector *Connector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		bot:       bot,
		connector: connector,
		logger:    logger.With("component", "teams"),
		queues:    make(map[string][]job),
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/messages", s.handleMessages)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Wait blocks until in-flight activities finish
func (s *Server) Wait() {
	s.wg.Wait()
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight work
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Wait()
	s.logger.Info("server stopped")
	return err
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	var a Activity
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActivityBytes)).Decode(&a); err != nil {
		http.Error(w, "invalid activity", http.StatusBadRequest)
		return
	}
	if a.Conversation.ID == "" {
		http.Error(w, "missing conversation id", http.StatusBadRequest)
		return
	}

	if s.connector != nil {
		if err := s.connector.Remember(a); err != nil {
			s.logger.Warn("activity rejected", "conversation_id", a.Conversation.ID, "service_url", a.ServiceURL, "error", err)
			http.Error(w, "untrusted service url", http.StatusForbidden)
			return
		}
	}

	convID := a.Conversation.ID
	switch {
	case a.Type == ActivityMessage:
		msg := ToInbound(a)
		s.dispatch(convID, "message", func(ctx context.Context) error {
			return s.bot.HandleMessage(ctx, msg)
		})
	case a.BotAdded():
		s.dispatch(convID, "welcome", func(ctx context.Context) error {
			return s.bot.Welcome(ctx, convID)
		})
	default:
		s.logger.Debug("activity ignored", "type", a.Type)
	}

	w.WriteHeader(http.StatusAccepted)
}

// dispatch queues fn behind earlier work for the same conversation.
// Different conversations run concurrently.
func (s *Server) dispatch(conversationID, kind string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	s.mu.Lock()
	pending, running := s.queues[conversationID]
	s.queues[conversationID] = append(pending, job{kind: kind, fn: fn})
	s.mu.Unlock()

	if !running {
		go s.drain(conversationID)
	}
}

func (s *Server) drain(conversationID string) {
	for {
		s.mu.Lock()
		pending := s.queues[conversationID]
		if len(pending) == 0 {
			delete(s.queues, conversationID)
			s.mu.Unlock()
			return
		}
		next := pending[0]
		s.queues[conversationID] = pending[1:]
		s.mu.Unlock()

		s.run(conversationID, next)
	}
}

func (s *Server) run(conversationID string, j job) {
	defer s.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()
	if err := j.fn(ctx); err != nil {
		s.logger.Error("activity failed", "kind", j.kind, "conversation_id", conversationID, "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Status string     `json:"status"`
		Stats  core.Stats `json:"stats"`
	}{Status: "ok", Stats: s.bot.Stats()})
}

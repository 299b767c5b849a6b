// ABOUTME: Connector delivers outbound messages through the Bot Framework REST API
// ABOUTME: Remembers the service URL and bot account for each conversation it has seen
package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/harper/supportbot/internal/attachments"
	"github.com/harper/supportbot/internal/models"
)

var (
	// ErrUnknownConversation is returned when sending to a conversation no activity came from
	ErrUnknownConversation = errors.New("no service url known for conversation")
	// ErrUntrustedServiceURL is returned for activities whose service url is not a trusted host
	ErrUntrustedServiceURL = errors.New("untrusted service url")
	// ErrRouteConflict is returned when an activity moves a known conversation to another host
	ErrRouteConflict = errors.New("conversation already routed to another host")
)

type route struct {
	serviceURL string
	bot        ChannelAccount
}

// Connector implements core.Transport
type Connector struct {
	client  *http.Client
	tokens  attachments.TokenSource
	trusted attachments.TrustedHosts
	logger  *slog.Logger

	mu     sync.RWMutex
	routes map[string]route
}

// NewConnector creates a connector; tokens may be nil for the emulator
func NewConnector(client *http.Client, tokens attachments.TokenSource, logger *slog.Logger) *Connector {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{
		client: client,
		tokens: tokens,
		logger: logger.With("component", "connector"),
		routes: make(map[string]route),
	}
}

// WithTrustedHosts sets which service hosts the connector accepts and sends the token to
func (c *Connector) WithTrustedHosts(t attachments.TrustedHosts) *Connector {
	c.trusted = t
	return c
}

// Remember records where replies for the activity's conversation go.
// A service url outside the trusted hosts, or on a different host than the
// conversation's existing route, is rejected and leaves the routes unchanged.
func (c *Connector) Remember(a Activity) error {
	if a.Conversation.ID == "" || a.ServiceURL == "" {
		return nil
	}
	if !c.trusted.Allows(a.ServiceURL) {
		return fmt.Errorf("%w: %s", ErrUntrustedServiceURL, a.ServiceURL)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.routes[a.Conversation.ID]; ok && !attachments.SameHost(existing.serviceURL, a.ServiceURL) {
		return fmt.Errorf("%w: %s", ErrRouteConflict, a.Conversation.ID)
	}
	c.routes[a.Conversation.ID] = route{serviceURL: a.ServiceURL, bot: a.Recipient}
	return nil
}

// Send implements core.Transport
func (c *Connector) Send(ctx context.Context, out models.OutboundMessage) error {
	c.mu.RLock()
	r, ok := c.routes[out.ConversationID]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConversation, out.ConversationID)
	}
	if !c.trusted.Allows(r.serviceURL) {
		return fmt.Errorf("%w: %s", ErrUntrustedServiceURL, r.serviceURL)
	}

	body, err := json.Marshal(FromOutbound(out, r.bot))
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}

	endpoint := strings.TrimRight(r.serviceURL, "/") + "/v3/conversations/" + url.PathEscape(out.ConversationID) + "/activities"
	if out.ReplyToID != "" {
		endpoint += "/" + url.PathEscape(out.ReplyToID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("get token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post activity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post activity: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	c.logger.Debug("activity sent", "conversation_id", out.ConversationID, "kind", out.Kind, "attachments", len(out.Attachments))
	return nil
}

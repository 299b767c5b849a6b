// ABOUTME: OAuth client-credentials token source for the Bot Framework connector
// ABOUTME: Caches the access token until shortly before it expires
package teams

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultTenant   = "botframework.com"
	connectorScope  = "https://api.botframework.com/.default"
	tokenURLFormat  = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	tokenExpirySlop = 5 * time.Minute
)

// ClientCredentials fetches bot access tokens. With no app id it returns an
// empty token, which is what the local emulator expects.
type ClientCredentials struct {
	AppID       string
	AppPassword string
	// TokenURL overrides the login endpoint; empty uses the tenant endpoint
	TokenURL string
	Tenant   string
	Client   *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

// NewClientCredentials creates a token source for an app registration
func NewClientCredentials(appID, password, tenant string) *ClientCredentials {
	return &ClientCredentials{AppID: appID, AppPassword: password, Tenant: tenant}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// Token implements attachments.TokenSource
func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	if c.AppID == "" {
		return "", nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	if c.token != "" && now().Before(c.expires) {
		return c.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.AppID},
		"client_secret": {c.AppPassword},
		"scope":         {connectorScope},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || tr.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned %d: %s %s", resp.StatusCode, tr.Error, tr.Description)
	}

	c.token = tr.AccessToken
	c.expires = now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpirySlop)
	return c.token, nil
}

func (c *ClientCredentials) tokenURL() string {
	if c.TokenURL != "" {
		return c.TokenURL
	}
	tenant := c.Tenant
	if tenant == "" {
		tenant = defaultTenant
	}
	return fmt.Sprintf(tokenURLFormat, tenant)
}

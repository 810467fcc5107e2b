// Package auth fetches OAuth2 client credentials tokens used as broker
// passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrNotConfigured is returned when the token endpoint or client id is empty.
var ErrNotConfigured = errors.New("oauth2 client credentials not configured")

// ClientCred caches a client credentials token and refreshes it when it
// expires. It is safe for concurrent use.
type ClientCred struct {
	conf    clientcredentials.Config
	timeout time.Duration

	mu    sync.Mutex
	token *oauth2.Token
}

func NewClientCred(conf Conf) (*ClientCred, error) {
	if conf.ClientID == "" || conf.AuthURL == "" {
		return nil, ErrNotConfigured
	}
	timeout := time.Duration(conf.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ClientCred{conf: conf.toOauth2Config(), timeout: timeout}, nil
}

// Token returns the cached access token, fetching a new one when missing or
// expired.
func (c *ClientCred) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != nil && c.token.Valid() {
		return c.token.AccessToken, nil
	}
	return c.fetch(ctx)
}

// ForceRefresh discards the cached token and fetches a new one.
func (c *ClientCred) ForceRefresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetch(ctx)
}

func (c *ClientCred) fetch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	c.token = tok
	return tok.AccessToken, nil
}

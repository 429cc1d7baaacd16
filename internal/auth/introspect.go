package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/makerhall/makerhall/internal/shared"
)

// TokenInfo is the subset of the introspection response the login flow needs.
type TokenInfo struct {
	Email     string
	ExpiresAt time.Time
}

// Verifier exchanges a third-party identity token for its claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (TokenInfo, error)
}

// IntrospectionClient verifies tokens against the provider's token-info
// endpoint. The call happens before any local transaction is opened.
type IntrospectionClient struct {
	endpoint string
	client   *http.Client
	now      func() time.Time
}

// NewIntrospectionClient constructs a client with a bounded request timeout.
func NewIntrospectionClient(endpoint string) *IntrospectionClient {
	return &IntrospectionClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

type introspectionResponse struct {
	Email string `json:"email"`
	Exp   int64  `json:"exp"`
	Error string `json:"error"`
}

// Verify posts the token to the introspection endpoint. An explicit error
// field or an expiry in the past fails authentication.
func (c *IntrospectionClient) Verify(ctx context.Context, token string) (TokenInfo, error) {
	form := url.Values{}
	form.Set("token", token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenInfo{}, fmt.Errorf("auth: build introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.client.Do(req)
	if err != nil {
		return TokenInfo{}, fmt.Errorf("auth: introspection call: %w", err)
	}
	defer res.Body.Close()

	var payload introspectionResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return TokenInfo{}, fmt.Errorf("auth: decode introspection response: %w", err)
	}
	if payload.Error != "" || res.StatusCode != http.StatusOK {
		return TokenInfo{}, shared.ErrInvalidCredentials
	}
	expires := time.Unix(payload.Exp, 0)
	if !expires.After(c.now()) {
		return TokenInfo{}, shared.ErrInvalidCredentials
	}
	if payload.Email == "" {
		return TokenInfo{}, shared.ErrInvalidCredentials
	}
	return TokenInfo{Email: payload.Email, ExpiresAt: expires}, nil
}

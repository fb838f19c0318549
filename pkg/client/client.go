// Package client is the Bearer-authenticated HTTP client for the identity
// provider's session API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

type Client struct {
	rest *resty.Client
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.rest.SetTimeout(timeout)
	}
}

func New(serverURL, token string, opts ...Option) (*Client, error) {
	if serverURL == "" {
		return nil, errors.New("server is required")
	}
	rest := resty.New().
		SetBaseURL(strings.TrimRight(serverURL, "/")).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "vvs")
	if token != "" {
		rest.SetAuthToken(token)
	}
	c := &Client{rest: rest}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// User is the authenticated account as reported by the provider.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// SessionInfo is the provider's view of the current session.
type SessionInfo struct {
	User User `json:"user"`
}

// Session fetches the session bound to the Bearer token.
func (c *Client) Session(ctx context.Context) (*SessionInfo, error) {
	var out SessionInfo
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/auth/get-session")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiError(resp)
	}
	if out.User.ID == "" {
		return nil, errors.New("no active session for this token")
	}
	return &out, nil
}

func apiError(resp *resty.Response) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	body := resp.Body()
	if len(body) > 0 {
		_ = json.Unmarshal(body, &payload)
	}
	msg := strings.TrimSpace(payload.Error)
	if msg == "" {
		msg = strings.TrimSpace(payload.Message)
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = resp.Status()
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: msg}
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Message)
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPollInterval is used when the provider omits the polling
	// interval. The provider's value is authoritative when present; do not
	// lower this to feel more responsive, it risks provider rate limits.
	DefaultPollInterval = 5 * time.Second

	// slowDownIncrement is added to the effective interval for every
	// slow_down response, per RFC 8628 section 3.5.
	slowDownIncrement = 5 * time.Second

	deviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"
)

// Endpoints are the two provider URLs the device grant talks to.
type Endpoints struct {
	DeviceAuthorizationURL string
	TokenURL               string
}

// Request carries the parameters of the initial device authorization call.
type Request struct {
	ClientID string
	Scope    string
}

// DeviceAuthorization is the provider's response to RequestCode. DeviceCode
// is only ever sent back to the token endpoint; UserCode is what the user
// types at the verification URI.
type DeviceAuthorization struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete,omitempty"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval,omitempty"`
}

// VerificationTarget returns the URL to open in a browser, preferring the
// complete URI with the code embedded.
func (d *DeviceAuthorization) VerificationTarget() string {
	if d.VerificationURIComplete != "" {
		return d.VerificationURIComplete
	}
	return d.VerificationURI
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	Error        string `json:"error,omitempty"`
	ErrorDesc    string `json:"error_description,omitempty"`
}

// Client performs the two-phase device authorization exchange against a
// fixed pair of endpoints. It does no retries of its own beyond the poll
// loop; a failed RequestCode surfaces immediately.
type Client struct {
	endpoints Endpoints
	http      *http.Client
	logger    *zap.Logger

	// Injected in tests to drive the poll loop without real time.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.http = httpClient
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(endpoints Endpoints, opts ...ClientOption) *Client {
	c := &Client{
		endpoints: endpoints,
		http:      &http.Client{Timeout: 30 * time.Second},
		logger:    zap.NewNop(),
		now:       time.Now,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestCode performs the device authorization call. A non-success response
// with a provider error body yields a *ProviderError; transport failures are
// returned wrapped.
func (c *Client) RequestCode(ctx context.Context, req Request) (*DeviceAuthorization, error) {
	if req.ClientID == "" {
		return nil, errors.New("client id is required")
	}
	values := url.Values{}
	values.Set("client_id", req.ClientID)
	if req.Scope != "" {
		values.Set("scope", req.Scope)
	}
	resp, err := c.postForm(ctx, c.endpoints.DeviceAuthorizationURL, values)
	if err != nil {
		return nil, fmt.Errorf("device authorization request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, providerErrorFromBody(resp, "device authorization failed")
	}
	var payload DeviceAuthorization
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode device authorization response: %w", err)
	}
	if payload.DeviceCode == "" || payload.UserCode == "" {
		return nil, errors.New("device authorization response missing device_code or user_code")
	}
	c.logger.Debug("device code issued",
		zap.String("user_code", payload.UserCode),
		zap.Int("expires_in", payload.ExpiresIn),
		zap.Int("interval", payload.Interval))
	return &payload, nil
}

// PollForToken polls the token endpoint until the user approves, a terminal
// provider error arrives, the device code's lifetime runs out, or ctx is
// cancelled. Every tick waits at least the current interval first, so the
// loop never spins. slow_down raises the interval for all subsequent ticks.
func (c *Client) PollForToken(ctx context.Context, authz *DeviceAuthorization, clientID string) (*Record, error) {
	if authz == nil || authz.DeviceCode == "" {
		return nil, errors.New("device code is required")
	}
	interval := time.Duration(authz.Interval) * time.Second
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := c.now().Add(time.Duration(authz.ExpiresIn) * time.Second)

	for {
		if err := c.sleep(ctx, interval); err != nil {
			return nil, err
		}
		// The server is supposed to report expired_token itself, but do not
		// rely on it; stop locally once the advertised lifetime is over.
		if !c.now().Before(deadline) {
			return nil, &ProviderError{
				Code:        ErrCodeExpiredToken,
				Description: "device code expired before authorization completed",
			}
		}
		rec, err := c.exchange(ctx, authz.DeviceCode, clientID)
		if err != nil {
			var provErr *ProviderError
			if errors.As(err, &provErr) && provErr.Retryable() {
				if provErr.Code == ErrCodeSlowDown {
					interval += slowDownIncrement
					c.logger.Debug("provider requested slow down", zap.Duration("interval", interval))
				}
				continue
			}
			return nil, err
		}
		return rec, nil
	}
}

func (c *Client) exchange(ctx context.Context, deviceCode, clientID string) (*Record, error) {
	values := url.Values{}
	values.Set("grant_type", deviceGrantType)
	values.Set("device_code", deviceCode)
	values.Set("client_id", clientID)
	resp, err := c.postForm(ctx, c.endpoints.TokenURL, values)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.Error != "" {
		return nil, &ProviderError{Code: payload.Error, Description: payload.ErrorDesc}
	}
	if payload.AccessToken == "" {
		return nil, errors.New("token response missing access_token")
	}
	now := c.now()
	rec := &Record{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		TokenType:    payload.TokenType,
		Scope:        payload.Scope,
		CreatedAt:    now,
	}
	if rec.TokenType == "" {
		rec.TokenType = "Bearer"
	}
	if payload.ExpiresIn > 0 {
		expiresAt := now.Add(time.Duration(payload.ExpiresIn) * time.Second)
		rec.ExpiresAt = &expiresAt
	}
	return rec, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, values url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}

func providerErrorFromBody(resp *http.Response, fallback string) error {
	var payload struct {
		Error     string `json:"error"`
		ErrorDesc string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return &ProviderError{Code: payload.Error, Description: payload.ErrorDesc}
	}
	return fmt.Errorf("%s: %s", fallback, resp.Status)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

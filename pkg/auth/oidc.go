package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

type discoveryDocument struct {
	TokenEndpoint               string `json:"token_endpoint"`
	DeviceAuthorizationEndpoint string `json:"device_authorization_endpoint"`
}

// DiscoverEndpoints fetches the issuer's OIDC discovery document and returns
// the endpoints relevant to the device grant. Providers that do not publish
// a discovery document are handled by the caller falling back to configured
// or derived endpoints.
func DiscoverEndpoints(ctx context.Context, client *http.Client, issuer string) (*Endpoints, error) {
	wellKnown := strings.TrimRight(issuer, "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wellKnown, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("discovery failed: %s", strings.TrimSpace(string(body)))
	}
	var doc discoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}
	if doc.DeviceAuthorizationEndpoint == "" {
		return nil, fmt.Errorf("device authorization endpoint not advertised by %s", issuer)
	}
	if doc.TokenEndpoint == "" {
		return nil, fmt.Errorf("token endpoint not advertised by %s", issuer)
	}
	return &Endpoints{
		DeviceAuthorizationURL: doc.DeviceAuthorizationEndpoint,
		TokenURL:               doc.TokenEndpoint,
	}, nil
}

// BuildRefreshConfig resolves the oauth2 configuration used by
// Manager.RefreshIfNeeded via full OIDC provider discovery. Callers fall
// back to a static token endpoint when the issuer has no discovery document.
func BuildRefreshConfig(ctx context.Context, client *http.Client, issuer, clientID string, scopes []string) (*oauth2.Config, error) {
	if client != nil {
		ctx = oidc.ClientContext(ctx, client)
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &oauth2.Config{
		ClientID: clientID,
		Endpoint: provider.Endpoint(),
		Scopes:   scopes,
	}, nil
}

// StaticRefreshConfig builds the refresh configuration from a known token
// endpoint, for providers without OIDC discovery.
func StaticRefreshConfig(tokenURL, clientID string, scopes []string) oauth2.Config {
	return oauth2.Config{
		ClientID: clientID,
		Endpoint: oauth2.Endpoint{TokenURL: tokenURL},
		Scopes:   scopes,
	}
}

package cmd

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/vvs-dev/vvs/pkg/auth"
	"github.com/vvs-dev/vvs/pkg/client"
)

// authenticatedRecord is the gate for every command that talks to the
// provider or the model: refresh opportunistically, then require a usable
// credential. It never proceeds unauthenticated.
func (rt *runtimeState) authenticatedRecord(ctx context.Context) (*auth.Record, error) {
	manager := rt.tokenManager()
	if rec := manager.Store.Load(); rec != nil && auth.Expired(rec, auth.DefaultSafetyMargin) && rec.RefreshToken != "" {
		if _, _, err := manager.RefreshIfNeeded(ctx, rt.refreshConfig(ctx)); err != nil {
			rt.logger.Debug("token refresh failed", zap.Error(err))
		} else {
			rt.logger.Debug("token refreshed")
		}
	}
	rec, err := manager.RequireValidToken()
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return nil, errors.New("not authenticated; run 'vvs login' first")
		}
		return nil, errors.New("session expired; run 'vvs login' again")
	}
	return rec, nil
}

// refreshConfig prefers full OIDC discovery and falls back to the resolved
// token endpoint for providers without a discovery document.
func (rt *runtimeState) refreshConfig(ctx context.Context) oauth2.Config {
	res := rt.resolved
	if cfg, err := auth.BuildRefreshConfig(ctx, nil, res.Issuer, res.ClientID, res.Scopes); err == nil {
		return *cfg
	}
	return auth.StaticRefreshConfig(res.TokenEndpoint, res.ClientID, res.Scopes)
}

// resolveUser looks the session up on the server, falling back to the
// token's own claims when the provider is unreachable.
func (rt *runtimeState) resolveUser(ctx context.Context, rec *auth.Record) client.User {
	api, err := client.New(rt.resolved.ServerURL, rec.AccessToken)
	if err == nil {
		if info, err := api.Session(ctx); err == nil {
			return info.User
		} else {
			rt.logger.Debug("session lookup failed", zap.Error(err))
		}
	}
	return client.User{Name: identityFromToken(rec.AccessToken)}
}

package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/avollmer/agentgate/internal/instrumentation"
	"github.com/avollmer/agentgate/internal/logging"
	"github.com/avollmer/agentgate/internal/store"
)

// Resolve returns a currently-valid token for the agent, or one of the
// closed error kinds. The record's state is evaluated fresh on every call:
//
//   - no record               -> ErrNotConnected
//   - token valid or no expiry -> returned as-is, no network call
//   - expired, refreshable     -> refreshed, re-persisted, returned
//   - expired, no refresh token -> ErrReauthRequired, no network call
//
// Refresh goes through a per-agent singleflight so concurrent resolves of
// the same expired credential trigger exactly one upstream call.
func (a *Authenticator) Resolve(ctx context.Context, agentID string) (*oauth2.Token, error) {
	cred, err := a.creds.Get(ctx, agentID)
	if errors.Is(err, store.ErrNotFound) {
		a.recordResolution(ctx, instrumentation.ResolutionNotConnected)
		return nil, fmt.Errorf("agent %q: %w", agentID, ErrNotConnected)
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       cred.Expiry,
	}

	if !cred.Expired(a.now()) {
		a.recordResolution(ctx, instrumentation.ResolutionValid)
		return token, nil
	}

	if cred.RefreshToken == "" {
		a.recordResolution(ctx, instrumentation.ResolutionReauthRequired)
		return nil, fmt.Errorf("agent %q: token expired and no refresh token stored: %w", agentID, ErrReauthRequired)
	}

	fresh, err, _ := a.refreshGroup.Do(agentID, func() (interface{}, error) {
		return a.refresh(ctx, agentID, token)
	})
	if err != nil {
		a.recordResolution(ctx, instrumentation.ResolutionRefreshFailed)
		return nil, err
	}
	a.recordResolution(ctx, instrumentation.ResolutionRefreshed)
	return fresh.(*oauth2.Token), nil
}

func (a *Authenticator) recordResolution(ctx context.Context, outcome string) {
	if a.metrics != nil {
		a.metrics.RecordCredentialResolution(ctx, outcome)
	}
}

// refresh exchanges the refresh token for a new access token and persists
// the result before returning, so any subsequent resolve observes it.
// On failure nothing is persisted and the stored record stays untouched.
func (a *Authenticator) refresh(ctx context.Context, agentID string, stale *oauth2.Token) (*oauth2.Token, error) {
	// Hand the source only the refresh token. Giving it the stale access
	// token too would let oauth2's reuse layer judge expiry by the wall
	// clock and return the stale token without ever hitting the token
	// endpoint; reaching this function means the store already decided a
	// refresh is due.
	fresh, err := a.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: stale.RefreshToken}).Token()
	if err != nil {
		a.logger.Warn("token refresh failed",
			logging.AgentHash(agentID),
			logging.Err(err))
		if a.metrics != nil {
			a.metrics.RecordTokenRefresh(ctx, instrumentation.ResultFailure)
		}
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	// The provider may or may not rotate the refresh token; the store only
	// overwrites it when a new value is present.
	refreshToken := ""
	if fresh.RefreshToken != stale.RefreshToken {
		refreshToken = fresh.RefreshToken
	}

	if _, err := a.creds.Upsert(ctx, agentID, fresh.AccessToken, refreshToken, fresh.Expiry); err != nil {
		return nil, fmt.Errorf("persist refreshed credential: %w", err)
	}

	a.logger.Info("token refreshed",
		logging.AgentHash(agentID),
		slog.Time("expiry", fresh.Expiry),
		slog.Bool("refresh_token_rotated", refreshToken != ""))
	if a.metrics != nil {
		a.metrics.RecordTokenRefresh(ctx, instrumentation.ResultSuccess)
	}
	return fresh, nil
}

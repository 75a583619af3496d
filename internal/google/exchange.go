package google

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/avollmer/agentgate/internal/logging"
)

// ExchangeCallback completes authorization from the full redirect URL the
// provider delivered to the callback endpoint. The state parameter must
// equal the agent id it was issued for; any mismatch, provider error or
// missing code terminates the flow with ErrExchangeFailed.
func (a *Authenticator) ExchangeCallback(ctx context.Context, agentID, redirectURL string) error {
	parsed, err := url.Parse(redirectURL)
	if err != nil {
		return fmt.Errorf("%w: parse redirect URL: %v", ErrExchangeFailed, err)
	}

	query := parsed.Query()
	if errCode := query.Get("error"); errCode != "" {
		return fmt.Errorf("%w: provider returned error %q", ErrExchangeFailed, errCode)
	}
	if state := query.Get("state"); state != agentID {
		return fmt.Errorf("%w: state does not match agent id", ErrExchangeFailed)
	}

	code := query.Get("code")
	if code == "" {
		return fmt.Errorf("%w: redirect URL carries no authorization code", ErrExchangeFailed)
	}

	return a.ExchangeCode(ctx, agentID, code)
}

// ExchangeCode exchanges a raw authorization code for tokens and persists
// them for the agent. Headless variant for callers that extracted the code
// out-of-band. Exchange failures are terminal; the caller must restart the
// authorization flow.
func (a *Authenticator) ExchangeCode(ctx context.Context, agentID, code string) error {
	token, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		a.logger.Warn("authorization code exchange rejected",
			logging.AgentHash(agentID),
			logging.Err(err))
		return fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	if _, err := a.creds.Upsert(ctx, agentID, token.AccessToken, token.RefreshToken, token.Expiry); err != nil {
		return fmt.Errorf("persist exchanged credential: %w", err)
	}

	a.logger.Info("agent connected",
		logging.AgentHash(agentID),
		slog.Bool("has_refresh_token", token.RefreshToken != ""),
		slog.Time("expiry", token.Expiry))
	return nil
}

package google

import (
	"context"

	"golang.org/x/oauth2"
)

// agentTokenSource adapts the resolver to oauth2.TokenSource so Google API
// clients can be handed a credential that stays valid across calls. Each
// Token() call resolves through the store, which keeps refresh persistence
// in one place instead of letting the API client refresh behind its back.
type agentTokenSource struct {
	auth    *Authenticator
	agentID string
	ctx     context.Context
}

// TokenSource returns an oauth2.TokenSource bound to one agent, suitable
// for option.WithTokenSource when constructing Gmail or Calendar services.
func (a *Authenticator) TokenSource(ctx context.Context, agentID string) oauth2.TokenSource {
	return &agentTokenSource{auth: a, agentID: agentID, ctx: ctx}
}

// Token implements oauth2.TokenSource.
func (s *agentTokenSource) Token() (*oauth2.Token, error) {
	return s.auth.Resolve(s.ctx, s.agentID)
}

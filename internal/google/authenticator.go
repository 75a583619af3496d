package google

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/avollmer/agentgate/internal/instrumentation"
	"github.com/avollmer/agentgate/internal/store"
)

// CredentialStore is the persistence boundary the authenticator depends on.
// Implemented by store.CredentialStore; narrowed to an interface so tests
// can substitute a recording double.
type CredentialStore interface {
	Get(ctx context.Context, agentID string) (*store.Credential, error)
	Upsert(ctx context.Context, agentID, accessToken, refreshToken string, expiry time.Time) (*store.Credential, error)
}

// Authenticator owns the credential lifecycle for all agents: grant
// exchange, encrypted persistence (through the store) and lazy refresh.
type Authenticator struct {
	cfg     *oauth2.Config
	creds   CredentialStore
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	// refreshGroup collapses concurrent refreshes for the same agent into
	// a single upstream call. Without it two racing resolves would each
	// refresh and overwrite the other's stored refresh token, which breaks
	// hard when the provider rotates refresh tokens on use.
	refreshGroup singleflight.Group

	// now is replaceable for expiry tests.
	now func() time.Time
}

// NewAuthenticator creates an Authenticator. If logger is nil, slog.Default()
// is used.
func NewAuthenticator(cfg *oauth2.Config, creds CredentialStore, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		cfg:    cfg,
		creds:  creds,
		logger: logger,
		now:    time.Now,
	}
}

// SetMetrics attaches resolution and refresh metrics. A nil receiver on the
// metrics side is a no-op, so callers may skip this entirely.
func (a *Authenticator) SetMetrics(m *instrumentation.Metrics) {
	a.metrics = m
}

// OAuthConfig returns the underlying oauth2 configuration.
func (a *Authenticator) OAuthConfig() *oauth2.Config {
	return a.cfg
}

// AuthURL returns the Google authorization URL for an agent. The agent id
// is carried as the OAuth state parameter: the callback is correlated back
// to the agent by state alone, no session table needed. Offline access and
// a forced consent prompt make Google issue a refresh token.
func (a *Authenticator) AuthURL(agentID string) string {
	return a.cfg.AuthCodeURL(agentID,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

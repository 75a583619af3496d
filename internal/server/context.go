package server

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	"github.com/avollmer/agentgate/internal/calendar"
	"github.com/avollmer/agentgate/internal/gmail"
	"github.com/avollmer/agentgate/internal/google"
	"github.com/avollmer/agentgate/internal/instrumentation"
	"github.com/avollmer/agentgate/internal/store"
)

// ServerContext holds the shared dependencies for the HTTP and MCP surfaces.
// Gmail and Calendar clients are created lazily per agent and cached; the
// cached clients hold a token source that resolves the agent's credential on
// every call, so a cached client never goes stale.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	auth    *google.Authenticator
	secrets *store.SecretStore

	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger

	gmailClients    map[string]*gmail.Client
	calendarClients map[string]*calendar.Client

	// Client constructors, replaceable in tests.
	newGmailClient    func(ctx context.Context, agentID string, ts oauth2.TokenSource) (*gmail.Client, error)
	newCalendarClient func(ctx context.Context, agentID string, ts oauth2.TokenSource) (*calendar.Client, error)

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context.
func NewServerContext(ctx context.Context, auth *google.Authenticator, secrets *store.SecretStore) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:               shutdownCtx,
		cancel:            cancel,
		auth:              auth,
		secrets:           secrets,
		gmailClients:      make(map[string]*gmail.Client),
		calendarClients:   make(map[string]*calendar.Client),
		newGmailClient:    gmail.NewClient,
		newCalendarClient: calendar.NewClient,
	}
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Authenticator returns the credential lifecycle manager.
func (sc *ServerContext) Authenticator() *google.Authenticator {
	return sc.auth
}

// Secrets returns the secret store.
func (sc *ServerContext) Secrets() *store.SecretStore {
	return sc.secrets
}

// SetInstrumentation attaches the metrics recorder and audit logger. Both
// may be nil, in which case instrumentation is skipped.
func (sc *ServerContext) SetInstrumentation(metrics *instrumentation.Metrics, audit *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = metrics
	sc.audit = audit
}

// Metrics returns the metrics recorder, or nil when not configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// AuditLogger returns the audit logger, or nil when not configured.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.audit
}

// GmailClient returns the Gmail client for an agent, creating and caching
// it on first use.
func (sc *ServerContext) GmailClient(agentID string) (*gmail.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.gmailClients[agentID]; ok {
		return client, nil
	}

	client, err := sc.newGmailClient(sc.ctx, agentID, sc.auth.TokenSource(sc.ctx, agentID))
	if err != nil {
		return nil, err
	}

	sc.gmailClients[agentID] = client
	return client, nil
}

// CalendarClient returns the Calendar client for an agent, creating and
// caching it on first use.
func (sc *ServerContext) CalendarClient(agentID string) (*calendar.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.calendarClients[agentID]; ok {
		return client, nil
	}

	client, err := sc.newCalendarClient(sc.ctx, agentID, sc.auth.TokenSource(sc.ctx, agentID))
	if err != nil {
		return nil, err
	}

	sc.calendarClients[agentID] = client
	return client, nil
}

// IsShutdown returns whether the server context has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. Safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}

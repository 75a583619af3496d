package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avollmer/agentgate/internal/crypto"
)

// ErrNotFound is returned when no record exists for the requested key.
var ErrNotFound = errors.New("record not found")

// Credential is one agent's persisted OAuth token state. Token fields are
// plaintext in memory; they are only ever ciphertext in the database.
type Credential struct {
	AgentID      string
	AccessToken  string
	RefreshToken string    // empty when the provider never issued one
	Expiry       time.Time // zero when the provider reported no expiry
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the access token is past its expiry at the given
// instant. A zero expiry means the token does not expire.
func (c *Credential) Expired(now time.Time) bool {
	if c.Expiry.IsZero() {
		return false
	}
	return c.Expiry.Before(now.UTC())
}

// CredentialStore persists one encrypted credential record per agent.
type CredentialStore struct {
	db   *DB
	gate *crypto.Gate
}

// NewCredentialStore creates a CredentialStore writing through the given
// encryption gate.
func NewCredentialStore(db *DB, gate *crypto.Gate) *CredentialStore {
	return &CredentialStore{db: db, gate: gate}
}

// Upsert stores tokens for an agent, encrypting them first. The access token
// and expiry are always overwritten. The refresh token is only overwritten
// when a non-empty value is supplied: Google does not reissue the refresh
// token on every refresh, and a missing value must never clear the stored one.
func (s *CredentialStore) Upsert(ctx context.Context, agentID, accessToken, refreshToken string, expiry time.Time) (*Credential, error) {
	if agentID == "" {
		return nil, fmt.Errorf("agent id cannot be empty")
	}
	if accessToken == "" {
		return nil, fmt.Errorf("access token cannot be empty")
	}

	encryptedAccess, err := s.gate.Encrypt(accessToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt access token: %w", err)
	}
	encryptedRefresh, err := s.gate.Encrypt(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt refresh token: %w", err)
	}

	const query = `
		INSERT INTO credentials (agent_id, access_token, refresh_token, expiry)
		VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''))
		ON CONFLICT (agent_id) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = COALESCE(excluded.refresh_token, credentials.refresh_token),
			expiry        = excluded.expiry,
			updated_at    = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`

	_, err = s.db.Writer.ExecContext(ctx, query, agentID, encryptedAccess, encryptedRefresh, formatExpiry(expiry))
	if err != nil {
		return nil, fmt.Errorf("upsert credential for agent %q: %w", agentID, err)
	}

	return s.Get(ctx, agentID)
}

// Get retrieves and decrypts the credential record for an agent.
// Returns ErrNotFound when the agent has never completed authorization.
func (s *CredentialStore) Get(ctx context.Context, agentID string) (*Credential, error) {
	const query = `
		SELECT agent_id, access_token, refresh_token, expiry, created_at, updated_at
		FROM credentials WHERE agent_id = ?`

	var (
		cred             Credential
		encryptedAccess  string
		encryptedRefresh sql.NullString
		expiry           sql.NullString
		createdAt        string
		updatedAt        string
	)

	err := s.db.Reader.QueryRowContext(ctx, query, agentID).Scan(
		&cred.AgentID, &encryptedAccess, &encryptedRefresh, &expiry, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("credential for agent %q: %w", agentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get credential for agent %q: %w", agentID, err)
	}

	cred.AccessToken, err = s.gate.Decrypt(encryptedAccess)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token for agent %q: %w", agentID, err)
	}
	if encryptedRefresh.Valid {
		cred.RefreshToken, err = s.gate.Decrypt(encryptedRefresh.String)
		if err != nil {
			return nil, fmt.Errorf("decrypt refresh token for agent %q: %w", agentID, err)
		}
	}

	if expiry.Valid {
		cred.Expiry, err = parseTime(expiry.String)
		if err != nil {
			return nil, fmt.Errorf("parse expiry for agent %q: %w", agentID, err)
		}
	}
	cred.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at for agent %q: %w", agentID, err)
	}
	cred.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at for agent %q: %w", agentID, err)
	}

	return &cred, nil
}

// formatExpiry renders an expiry for storage as RFC 3339 in UTC.
// A zero expiry is stored as NULL (via NULLIF in the query).
func formatExpiry(expiry time.Time) string {
	if expiry.IsZero() {
		return ""
	}
	return expiry.UTC().Format(time.RFC3339)
}

// timeLayouts are the timestamp shapes we accept from the database. The
// zone-less layouts exist because SQLite functions and older writers emit
// naive timestamps; those are parsed in UTC, never in the host's local zone.
// Comparing a naive timestamp in local time misclassifies token expiry by
// the host's UTC offset.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTime parses a stored timestamp, normalizing zone-less values to UTC.
func parseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

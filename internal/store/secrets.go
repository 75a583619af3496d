package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avollmer/agentgate/internal/crypto"
)

// Secret is a generic per-agent, per-service key-value blob. Values are
// plaintext in memory and individually encrypted in the database.
type Secret struct {
	AgentID     string
	ServiceName string
	Data        map[string]string
	UpdatedAt   time.Time
}

// SecretStore persists one secret record per (agent, service) pair.
type SecretStore struct {
	db   *DB
	gate *crypto.Gate
}

// NewSecretStore creates a SecretStore writing through the given encryption gate.
func NewSecretStore(db *DB, gate *crypto.Gate) *SecretStore {
	return &SecretStore{db: db, gate: gate}
}

// Put stores or replaces the whole value map for (agentID, serviceName).
func (s *SecretStore) Put(ctx context.Context, agentID, serviceName string, data map[string]string) (*Secret, error) {
	if agentID == "" || serviceName == "" {
		return nil, fmt.Errorf("agent id and service name cannot be empty")
	}

	encrypted := make(map[string]string, len(data))
	for key, value := range data {
		ciphertext, err := s.gate.Encrypt(value)
		if err != nil {
			return nil, fmt.Errorf("encrypt secret %q: %w", key, err)
		}
		encrypted[key] = ciphertext
	}

	blob, err := json.Marshal(encrypted)
	if err != nil {
		return nil, fmt.Errorf("marshal secret data: %w", err)
	}

	const query = `
		INSERT INTO agent_secrets (agent_id, service_name, secret_data)
		VALUES (?, ?, ?)
		ON CONFLICT (agent_id, service_name) DO UPDATE SET
			secret_data = excluded.secret_data,
			updated_at  = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`

	if _, err := s.db.Writer.ExecContext(ctx, query, agentID, serviceName, string(blob)); err != nil {
		return nil, fmt.Errorf("put secret %s/%s: %w", agentID, serviceName, err)
	}

	return s.Get(ctx, agentID, serviceName)
}

// Get retrieves and decrypts the secret record for (agentID, serviceName).
// Returns ErrNotFound when no record exists.
func (s *SecretStore) Get(ctx context.Context, agentID, serviceName string) (*Secret, error) {
	const query = `
		SELECT secret_data, updated_at
		FROM agent_secrets WHERE agent_id = ? AND service_name = ?`

	var (
		blob      string
		updatedAt string
	)
	err := s.db.Reader.QueryRowContext(ctx, query, agentID, serviceName).Scan(&blob, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("secret %s/%s: %w", agentID, serviceName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get secret %s/%s: %w", agentID, serviceName, err)
	}

	var encrypted map[string]string
	if err := json.Unmarshal([]byte(blob), &encrypted); err != nil {
		return nil, fmt.Errorf("unmarshal secret data %s/%s: %w", agentID, serviceName, err)
	}

	data := make(map[string]string, len(encrypted))
	for key, ciphertext := range encrypted {
		plaintext, err := s.gate.Decrypt(ciphertext)
		if err != nil {
			return nil, fmt.Errorf("decrypt secret %q: %w", key, err)
		}
		data[key] = plaintext
	}

	secret := &Secret{
		AgentID:     agentID,
		ServiceName: serviceName,
		Data:        data,
	}
	secret.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at for secret %s/%s: %w", agentID, serviceName, err)
	}

	return secret, nil
}

// Delete removes the secret record for (agentID, serviceName).
// Returns ErrNotFound when there was nothing to delete.
func (s *SecretStore) Delete(ctx context.Context, agentID, serviceName string) error {
	const query = `DELETE FROM agent_secrets WHERE agent_id = ? AND service_name = ?`

	result, err := s.db.Writer.ExecContext(ctx, query, agentID, serviceName)
	if err != nil {
		return fmt.Errorf("delete secret %s/%s: %w", agentID, serviceName, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete secret %s/%s: %w", agentID, serviceName, err)
	}
	if affected == 0 {
		return fmt.Errorf("secret %s/%s: %w", agentID, serviceName, ErrNotFound)
	}

	return nil
}

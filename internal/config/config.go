// Package config loads application configuration from environment variables.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// EncryptionKey is the raw AES-256 key protecting tokens and secrets at
	// rest. Startup fails without it.
	EncryptionKey []byte

	ClientSecretsPath string
	RedirectURL       string
	Scopes            []string

	ListenAddr  string
	MetricsAddr string
	DBPath      string
}

// Load reads configuration from environment variables and returns a validated
// Config. AGENTGATE_ENCRYPTION_KEY (base64, 32 bytes decoded) is required.
// Optional variables with defaults: AGENTGATE_CLIENT_SECRETS
// (client_secrets.json), AGENTGATE_REDIRECT_URL
// (http://localhost:8000/auth/callback), AGENTGATE_LISTEN_ADDR
// (127.0.0.1:8000), AGENTGATE_METRICS_ADDR (127.0.0.1:9090),
// AGENTGATE_DB_PATH (agentgate.db), AGENTGATE_SCOPES (comma separated).
func Load() (*Config, error) {
	keyB64 := os.Getenv("AGENTGATE_ENCRYPTION_KEY")
	if keyB64 == "" {
		return nil, fmt.Errorf("AGENTGATE_ENCRYPTION_KEY is required")
	}
	key, err := decodeKey(keyB64)
	if err != nil {
		return nil, fmt.Errorf("AGENTGATE_ENCRYPTION_KEY: %w", err)
	}

	cfg := &Config{
		EncryptionKey:     key,
		ClientSecretsPath: "client_secrets.json",
		RedirectURL:       "http://localhost:8000/auth/callback",
		ListenAddr:        "127.0.0.1:8000",
		MetricsAddr:       "127.0.0.1:9090",
		DBPath:            "agentgate.db",
	}

	if v, ok := os.LookupEnv("AGENTGATE_CLIENT_SECRETS"); ok {
		cfg.ClientSecretsPath = v
	}
	if v, ok := os.LookupEnv("AGENTGATE_REDIRECT_URL"); ok {
		cfg.RedirectURL = v
	}
	if v, ok := os.LookupEnv("AGENTGATE_LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("AGENTGATE_METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := os.LookupEnv("AGENTGATE_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := os.LookupEnv("AGENTGATE_SCOPES"); ok && v != "" {
		for _, scope := range strings.Split(v, ",") {
			scope = strings.TrimSpace(scope)
			if scope != "" {
				cfg.Scopes = append(cfg.Scopes, scope)
			}
		}
	}

	return cfg, nil
}

// decodeKey accepts standard or URL-safe base64 and requires a 32 byte key.
func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		key, err = base64.URLEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("decoded key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// KeySize is the required key length in bytes for AES-256-GCM.
const KeySize = 32

// Gate provides authenticated encryption for secret strings at rest.
// It uses AES-256-GCM with a random nonce per encryption and encodes
// ciphertext as URL-safe base64 so it can live in a TEXT column.
//
// There is no disabled mode: construction fails without a valid key.
// Storing agent tokens in plaintext is never acceptable, so the gate
// fails closed at startup rather than degrading silently.
type Gate struct {
	aead cipher.AEAD
}

// New creates a Gate from a raw AES-256 key. The key must be exactly
// 32 bytes; anything else (including an absent key) is an error.
func New(key []byte) (*Gate, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("encryption key is not configured")
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be exactly %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &Gate{aead: aead}, nil
}

// Encrypt encrypts plaintext and returns base64url(nonce || ciphertext || tag).
// An empty plaintext is passed through as an empty string: absence of a
// secret propagates rather than being encrypted.
func (g *Gate) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, g.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	// Seal appends the ciphertext and tag to the nonce.
	sealed := g.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Tampered or truncated ciphertext fails GCM
// authentication and returns an error. An empty input passes through.
func (g *Gate) Decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	nonceSize := g.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short: %d bytes", len(data))
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := g.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}

	return string(plaintext), nil
}

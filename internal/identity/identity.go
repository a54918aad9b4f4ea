// Package identity mints the opaque per-client tokens used as voter and
// liker keys. Tokens are capabilities, not verified identities: the
// server trusts whatever token a client presents.
package identity

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NewToken generates a random URL-safe token.
func NewToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// LoadOrCreate returns the token cached at path, minting and persisting
// one on first use. This mirrors how a browser client keeps its id in
// local storage.
func LoadOrCreate(path string) (string, error) {
	if data, err := os.ReadFile(path); err == nil {
		token := strings.TrimSpace(string(data))
		if token != "" {
			return token, nil
		}
	}

	token, err := NewToken()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create identity dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("failed to persist token: %w", err)
	}
	return token, nil
}

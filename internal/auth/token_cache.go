package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// TokenCache persists one provider's OAuth token between runs so silent
// sign-in can resume without a consent prompt.
type TokenCache struct {
	path string
}

// NewTokenCache returns a cache backed by the given file path.
func NewTokenCache(path string) *TokenCache {
	return &TokenCache{path: path}
}

// DefaultTokenCache places the cache under the user's cache directory,
// one file per provider name.
func DefaultTokenCache(name string) (*TokenCache, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("resolving cache dir: %w", err)
	}
	return NewTokenCache(filepath.Join(dir, "calhub", name+".token")), nil
}

// Load reads the cached token. A missing cache file yields
// ErrNoPriorSession.
func (c *TokenCache) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil, ErrNoPriorSession
	}
	if err != nil {
		return nil, fmt.Errorf("reading token cache: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decoding token cache: %w", err)
	}
	return &tok, nil
}

// Save writes the token with owner-only permissions.
func (c *TokenCache) Save(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("writing token cache: %w", err)
	}
	return nil
}

// Clear removes the cached token. Clearing an absent cache is a no-op.
func (c *TokenCache) Clear() error {
	err := os.Remove(c.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing token cache: %w", err)
	}
	return nil
}

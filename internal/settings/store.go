// Package settings persists the API credentials as a small JSON document in
// a user-scoped location. The file is read at the start of each request and
// concurrent saves are last-writer-wins.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultPropertyID is used when no property id has been saved yet.
const DefaultPropertyID = "6000"

// Credentials is everything needed to call the upstream API.
type Credentials struct {
	AccessToken string `json:"access_token"`
	PropertyID  string `json:"property_id"`
}

// Store reads and writes the credentials file.
type Store struct {
	path string
	mu   sync.Mutex
}

// DefaultPath returns the per-user settings file location
// (~/.propex/settings.json).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".propex", "settings.json"), nil
}

// NewStore creates a Store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the saved credentials. A missing file is not an error: it
// yields empty credentials with the default property id, which is also the
// fallback whenever no property id was saved.
func (s *Store) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds := Credentials{PropertyID: DefaultPropertyID}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return creds, nil
	}
	if err != nil {
		return creds, fmt.Errorf("read settings: %w", err)
	}

	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{PropertyID: DefaultPropertyID}, fmt.Errorf("parse settings: %w", err)
	}
	if creds.PropertyID == "" {
		creds.PropertyID = DefaultPropertyID
	}
	return creds, nil
}

// Save writes the credentials, creating the parent directory on first use.
// The file is user-readable only since it holds the access token.
func (s *Store) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

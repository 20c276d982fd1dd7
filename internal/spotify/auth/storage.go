package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

const (
	// DefaultCredentialsFileName is the default name for the credentials file.
	DefaultCredentialsFileName = "credentials.json"
)

// Credentials is what a successful login leaves on disk.
type Credentials struct {
	Token       *oauth2.Token `json:"token"`
	UserID      string        `json:"user_id"`
	SpotifyID   string        `json:"spotify_id"`
	DisplayName string        `json:"display_name"`
}

// TokenStorage handles persisting credentials to disk.
type TokenStorage struct {
	path string
}

// NewTokenStorage creates a new credential storage at the specified path.
// If path is empty, uses the default location (~/.config/turntable/credentials.json).
func NewTokenStorage(path string) (*TokenStorage, error) {
	if path == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
		path = filepath.Join(configDir, "turntable", DefaultCredentialsFileName)
	}

	return &TokenStorage{path: path}, nil
}

// Save persists credentials to disk.
func (s *TokenStorage) Save(creds *Credentials) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	// Owner only
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}

// Load reads credentials from disk. Returns nil, nil when none are stored.
func (s *TokenStorage) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	return &creds, nil
}

// Delete removes the stored credentials.
func (s *TokenStorage) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credentials file: %w", err)
	}
	return nil
}

// Exists returns true if a credentials file exists.
func (s *TokenStorage) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Path returns the path to the credentials file.
func (s *TokenStorage) Path() string {
	return s.path
}

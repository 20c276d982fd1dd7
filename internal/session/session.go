// Package session supplies the bearer token and user identity that every
// playback operation reads before touching the remote player or the store.
package session

import (
	"context"

	"github.com/tessro/turntable/internal/spotify/auth"
)

// Credentials is the session context for a single operation.
type Credentials struct {
	AccessToken string
	UserID      string
	DisplayName string
}

// Authenticated reports whether a bearer token is present.
func (c Credentials) Authenticated() bool {
	return c.AccessToken != ""
}

// HasIdentity reports whether rows can be keyed to a user.
func (c Credentials) HasIdentity() bool {
	return c.UserID != ""
}

// Provider yields the current credentials. Callers read it at the start of
// every operation and must not cache the result.
type Provider interface {
	Current(ctx context.Context) (Credentials, error)
}

// Static always returns the same credentials.
type Static Credentials

// Current implements Provider.
func (s Static) Current(context.Context) (Credentials, error) {
	return Credentials(s), nil
}

// FileProvider reads the credentials written by 'turntable auth login'.
// Token refresh is the HTTP client's job; this only reports what is stored.
type FileProvider struct {
	storage *auth.TokenStorage
}

// NewFileProvider creates a provider over storage.
func NewFileProvider(storage *auth.TokenStorage) *FileProvider {
	return &FileProvider{storage: storage}
}

// Current implements Provider. Missing credentials yield the zero value.
func (p *FileProvider) Current(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	stored, err := p.storage.Load()
	if err != nil {
		return Credentials{}, err
	}
	if stored == nil {
		return Credentials{}, nil
	}

	creds := Credentials{
		UserID:      stored.UserID,
		DisplayName: stored.DisplayName,
	}
	if stored.Token != nil {
		creds.AccessToken = stored.Token.AccessToken
	}
	return creds, nil
}

package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	tterrors "github.com/tessro/turntable/internal/errors"
)

// expiryBuffer treats a token as expired slightly before its real expiry.
const expiryBuffer = 60 * time.Second

// IsExpired returns true if the token has expired or will expire within the buffer.
func IsExpired(tok *oauth2.Token) bool {
	if tok == nil {
		return true
	}
	if tok.Expiry.IsZero() {
		return false
	}
	return time.Now().Add(expiryBuffer).After(tok.Expiry)
}

// storedTokenSource reads the token from storage on every call and
// refreshes it through the OAuth config when it is about to expire.
type storedTokenSource struct {
	ctx     context.Context
	config  *Config
	storage *TokenStorage

	mu sync.Mutex
}

// TokenSource returns an oauth2.TokenSource backed by storage. Refreshed
// tokens are written back so other processes pick them up.
func (c *Config) TokenSource(ctx context.Context, storage *TokenStorage) oauth2.TokenSource {
	return &storedTokenSource{ctx: ctx, config: c, storage: storage}
}

func (s *storedTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, err := s.storage.Load()
	if err != nil {
		return nil, err
	}
	if creds == nil || creds.Token == nil {
		return nil, tterrors.ErrNotAuthenticated
	}
	if !IsExpired(creds.Token) {
		return creds.Token, nil
	}
	if creds.Token.RefreshToken == "" {
		return nil, tterrors.WithSuggestion(tterrors.ErrNotAuthenticated,
			"Session expired. Run 'turntable auth login' to re-authenticate")
	}

	// Force a refresh regardless of the library's own expiry delta.
	stale := *creds.Token
	stale.Expiry = time.Now().Add(-time.Minute)
	fresh, err := s.config.OAuth2().TokenSource(s.ctx, &stale).Token()
	if err != nil {
		return nil, tterrors.Wrap(tterrors.ErrNotAuthenticated, fmt.Errorf("token refresh failed: %w", err))
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = creds.Token.RefreshToken
	}

	creds.Token = fresh
	if err := s.storage.Save(creds); err != nil {
		return nil, err
	}
	return fresh, nil
}

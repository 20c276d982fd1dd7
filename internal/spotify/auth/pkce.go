package auth

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/oauth2"
)

// StateLength is the length of the state parameter for CSRF protection.
const StateLength = 32

// Flow holds the PKCE verifier and CSRF state for one login attempt.
type Flow struct {
	Verifier string
	State    string
}

// NewFlow generates a fresh verifier and state.
func NewFlow() (*Flow, error) {
	state, err := generateRandomString(StateLength)
	if err != nil {
		return nil, err
	}

	return &Flow{
		Verifier: oauth2.GenerateVerifier(),
		State:    state,
	}, nil
}

// generateRandomString creates a cryptographically secure random string
// using URL-safe base64 characters (A-Z, a-z, 0-9, -, _).
func generateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(bytes)
	if len(encoded) > length {
		encoded = encoded[:length]
	}
	return encoded, nil
}

package auth

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/spotify"
)

const (
	// DefaultRedirectURI is the default callback URI for the local server.
	DefaultRedirectURI = "http://127.0.0.1:8888/callback"
)

// DefaultScopes are the Spotify scopes required for turntable functionality.
var DefaultScopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"user-read-private",
	"user-read-email",
	"user-top-read",
	"playlist-read-private",
	"playlist-modify-private",
	"playlist-modify-public",
}

// Config holds the OAuth configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	// Endpoint overrides the Spotify accounts endpoint. Zero means spotify.Endpoint.
	Endpoint oauth2.Endpoint
}

// NewConfig creates a new OAuth configuration with defaults.
func NewConfig(clientID, clientSecret string) *Config {
	return &Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  DefaultRedirectURI,
		Scopes:       DefaultScopes,
	}
}

// OAuth2 returns the oauth2.Config for this configuration.
func (c *Config) OAuth2() *oauth2.Config {
	endpoint := c.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = spotify.Endpoint
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       c.Scopes,
		Endpoint:     endpoint,
	}
}

// AuthCodeURL builds the authorization URL for one login attempt.
func (c *Config) AuthCodeURL(f *Flow) string {
	return c.OAuth2().AuthCodeURL(f.State, oauth2.S256ChallengeOption(f.Verifier))
}

// Exchange trades an authorization code for a token, sending the flow's verifier.
func (c *Config) Exchange(ctx context.Context, f *Flow, code string) (*oauth2.Token, error) {
	tok, err := c.OAuth2().Exchange(ctx, code, oauth2.VerifierOption(f.Verifier))
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	return tok, nil
}

// CallbackAddr splits a loopback redirect URI into a listen address and path.
func CallbackAddr(redirectURI string) (addr, path string, err error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}
	if u.Scheme != "http" {
		return "", "", fmt.Errorf("redirect URI %q must use http on loopback", redirectURI)
	}
	port := u.Port()
	if port == "" {
		port = "80"
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return u.Hostname() + ":" + port, path, nil
}

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrNoPlaybackDevice    = errors.New("no playback device available")
	ErrRemoteCommandFailed = errors.New("remote command failed")
	ErrRemoteUnavailable   = errors.New("remote unavailable")
	ErrPersistenceFailed   = errors.New("persistence failed")
	ErrNoCurrentTrack      = errors.New("no current track")
	ErrNoUserIdentity      = errors.New("no user identity")
	ErrInvalidTrack        = errors.New("invalid track")
	ErrSuperseded          = errors.New("superseded by a newer command")
	ErrAlreadyInPlaylist   = errors.New("track already in playlist")
	ErrRateLimited         = errors.New("rate limited")
	ErrConfigNotFound      = errors.New("config file not found")
	ErrInvalidConfig       = errors.New("invalid configuration")
)

// Wrap tags err with a taxonomy sentinel so both match errors.Is.
// Returns nil if err is nil.
func Wrap(kind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// TurntableError wraps an error with a user-friendly suggestion.
type TurntableError struct {
	Err        error
	Suggestion string
}

func (e *TurntableError) Error() string {
	return e.Err.Error()
}

func (e *TurntableError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &TurntableError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// IsBlocking reports whether the error needs the user's attention before
// anything else can work. Everything else is log-only.
func IsBlocking(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrNoPlaybackDevice)
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var ttErr *TurntableError
	if errors.As(err, &ttErr) && ttErr.Suggestion != "" {
		return ttErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, ErrNotAuthenticated) || strings.Contains(errStr, "invalid access token") ||
		strings.Contains(errStr, "token expired"):
		return "Run 'turntable auth login' to authenticate with Spotify"

	case errors.Is(err, ErrNoPlaybackDevice):
		return "Open Spotify on a device and play something once, then try again"

	case errors.Is(err, ErrNoUserIdentity):
		return "Run 'turntable auth login' again to link your listening history"

	case errors.Is(err, ErrNoCurrentTrack):
		return "Play a track first"

	case errors.Is(err, ErrRateLimited) || strings.Contains(errStr, "429"):
		return "Too many requests. Wait a moment and try again"

	case errors.Is(err, ErrRemoteUnavailable) || strings.Contains(errStr, "connection refused"):
		return "Check your internet connection and try again"

	case errors.Is(err, ErrPersistenceFailed):
		return "Check that the history database path is writable"

	case errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig):
		return "Run 'turntable config init' to create a configuration file"

	case strings.Contains(errStr, "premium required") || strings.Contains(errStr, "restricted device"):
		return "Playback control requires Spotify Premium"

	case strings.Contains(errStr, "500") || strings.Contains(errStr, "server error"):
		return "Spotify is having issues. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// Err joins the collected errors, or returns nil.
func (p *PartialResult[T]) Err() error {
	return errors.Join(p.Errors...)
}

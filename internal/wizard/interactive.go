package wizard

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/tessro/turntable/internal/core"
)

// Interactive provides interactive fallback functionality.
type Interactive struct {
	enabled  bool
	searcher Searcher
}

// NewInteractive creates a new interactive handler.
func NewInteractive(searcher Searcher) *Interactive {
	return &Interactive{
		enabled:  true,
		searcher: searcher,
	}
}

// SetEnabled enables or disables interactive mode.
func (i *Interactive) SetEnabled(enabled bool) {
	i.enabled = enabled
}

// IsTerminal returns true if stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// CanInteract returns true if interactive mode is available.
func (i *Interactive) CanInteract() bool {
	return i.enabled && IsTerminal()
}

// PromptSearch launches the search wizard if interactive mode is available.
// Returns the selected result, or nil if cancelled or not interactive.
func (i *Interactive) PromptSearch(ctx context.Context, initial SearchType) (*SearchResult, error) {
	if !i.CanInteract() || i.searcher == nil {
		return nil, nil
	}
	return RunSearch(ctx, i.searcher, initial)
}

// PromptPlaylist asks the user to pick one of playlists. Returns nil if
// cancelled or not interactive.
func (i *Interactive) PromptPlaylist(playlists []core.Playlist) (*core.Playlist, error) {
	if !i.CanInteract() || len(playlists) == 0 {
		return nil, nil
	}

	options := make([]huh.Option[int], len(playlists))
	for idx, p := range playlists {
		options[idx] = huh.NewOption(p.Name, idx)
	}

	var picked int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Add to playlist").
				Options(options...).
				Value(&picked),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, nil
		}
		return nil, err
	}
	return &playlists[picked], nil
}

// NeedsQuery returns true if a search argument is required but missing.
func NeedsQuery(args []string) bool {
	return len(args) == 0
}

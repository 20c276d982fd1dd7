package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/turntable/internal/core"
	tterrors "github.com/tessro/turntable/internal/errors"
	"github.com/tessro/turntable/internal/wizard"
)

const albumURIPrefix = "spotify:album:"

var (
	playAlbum   bool
	playHistory int
)

var playCmd = &cobra.Command{
	Use:   "play [query]",
	Short: "Play a track or album",
	Long: `Search for a track and play it, recording it at the top of history.
Without a query, opens the interactive search in a terminal, or resumes
playback otherwise.

Examples:
  turntable play                        # Search interactively, or resume
  turntable play "bohemian rhapsody"    # Search and play a track
  turntable play --album "abbey road"   # Search and play a whole album
  turntable play spotify:album:xxx      # Play an album by URI
  turntable play --history 3            # Replay the third history entry`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playAlbum, "album", false, "search for albums")
	playCmd.Flags().IntVar(&playHistory, "history", 0, "replay the Nth history entry (1 is newest)")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.TrimSpace(strings.Join(args, " "))

	return withApp(ctx, func(a *app) error {
		switch {
		case playHistory > 0:
			return playFromHistory(ctx, a, playHistory)
		case strings.HasPrefix(query, albumURIPrefix):
			return playAlbumByID(ctx, a, strings.TrimPrefix(query, albumURIPrefix))
		case query != "" && playAlbum:
			return searchAndPlayAlbum(ctx, a, query)
		case query != "":
			return searchAndPlayTrack(ctx, a, query)
		}

		interactive := wizard.NewInteractive(a.library)
		interactive.SetEnabled(!JSONOutput())
		if interactive.CanInteract() {
			initial := wizard.SearchTracks
			if playAlbum {
				initial = wizard.SearchAlbums
			}
			picked, err := interactive.PromptSearch(ctx, initial)
			if err != nil {
				return err
			}
			switch {
			case picked == nil:
				return nil
			case picked.Album != nil:
				return playAlbumByID(ctx, a, picked.Album.ID)
			case picked.Track != nil:
				return playTrack(ctx, a, *picked.Track)
			}
			return nil
		}

		return resume(ctx, a)
	})
}

func playTrack(ctx context.Context, a *app, track core.Track) error {
	ctrl := a.controller(ctx)
	if err := ctrl.PlayTrack(ctx, track, false); err != nil {
		return err
	}
	printTrackStatus("playing", "▶ Playing", ctrl.Snapshot())
	return nil
}

func searchAndPlayTrack(ctx context.Context, a *app, query string) error {
	tracks, err := a.library.Search(ctx, query, 1)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(tracks) == 0 {
		return fmt.Errorf("no tracks found for %q", query)
	}
	return playTrack(ctx, a, tracks[0])
}

func searchAndPlayAlbum(ctx context.Context, a *app, query string) error {
	albums, err := a.library.SearchAlbums(ctx, query, 1)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(albums) == 0 {
		return fmt.Errorf("no albums found for %q", query)
	}
	return playAlbumByID(ctx, a, albums[0].ID)
}

func playAlbumByID(ctx context.Context, a *app, albumID string) error {
	ctrl := a.controller(ctx)
	if err := ctrl.PlayAlbum(ctx, albumID); err != nil {
		return err
	}

	snap := ctrl.Snapshot()
	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]any{
			"status":  "playing",
			"album":   albumID,
			"track":   snap.Current,
			"history": len(snap.History),
		})
		return nil
	}
	if snap.Current != nil {
		fmt.Printf("💿 Playing %s: %s\n", snap.Current.Album.Name, trackLine(*snap.Current))
	} else {
		fmt.Println("💿 Playing album")
	}
	return nil
}

// playFromHistory replays a history entry in place, without moving it.
func playFromHistory(ctx context.Context, a *app, n int) error {
	ctrl := a.controller(ctx)
	history := ctrl.Snapshot().History
	if n > len(history) {
		return fmt.Errorf("history has %d entries", len(history))
	}

	if err := ctrl.PlayTrack(ctx, history[n-1], true); err != nil {
		return err
	}
	printTrackStatus("playing", "▶ Playing", ctrl.Snapshot())
	return nil
}

// resume starts playback of the current track if nothing is playing.
func resume(ctx context.Context, a *app) error {
	ctrl := a.controller(ctx)
	snap := ctrl.Snapshot()
	if snap.Current == nil {
		return tterrors.ErrNoCurrentTrack
	}
	if !snap.IsPlaying {
		if err := ctrl.TogglePlayPause(ctx); err != nil {
			return err
		}
	}
	printTrackStatus("playing", "▶ Resumed", ctrl.Snapshot())
	return nil
}

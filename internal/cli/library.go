package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessro/turntable/internal/core"
	tterrors "github.com/tessro/turntable/internal/errors"
	"github.com/tessro/turntable/internal/library"
	"github.com/tessro/turntable/internal/wizard"
)

var (
	likedCount      int
	topArtistsCount int
	playlistAddFrom int
)

var likedCmd = &cobra.Command{
	Use:   "liked",
	Short: "Show a random pick of liked tracks",
	Long:  `Shows a random selection of tracks you have liked in your history.`,
	Args:  cobra.NoArgs,
	RunE:  runLiked,
}

var topArtistsCmd = &cobra.Command{
	Use:     "top-artists",
	Aliases: []string{"top"},
	Short:   "Show your most played artists and their popular tracks",
	Args:    cobra.NoArgs,
	RunE:    runTopArtists,
}

var playlistCmd = &cobra.Command{
	Use:   "playlist",
	Short: "List playlists or add tracks to them",
	Args:  cobra.NoArgs,
	RunE:  runPlaylistList,
}

var playlistAddCmd = &cobra.Command{
	Use:   "add [playlist]",
	Short: "Add the current track to a playlist",
	Long: `Adds the current track, or a history entry with --history, to a
playlist given by id or name. Without a playlist, asks which one to use.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlaylistAdd,
}

func init() {
	likedCmd.Flags().IntVarP(&likedCount, "count", "n", library.DefaultLikedPicks, "number of tracks")
	topArtistsCmd.Flags().IntVarP(&topArtistsCount, "count", "n", library.DefaultTopArtists, "number of artists")
	playlistAddCmd.Flags().IntVar(&playlistAddFrom, "history", 0, "add the Nth history entry instead of the current track")

	playlistCmd.AddCommand(playlistAddCmd)
	rootCmd.AddCommand(likedCmd)
	rootCmd.AddCommand(topArtistsCmd)
	rootCmd.AddCommand(playlistCmd)
}

func runLiked(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		userID, err := a.userID(ctx)
		if err != nil {
			return err
		}
		picks, err := a.library.LikedPicks(ctx, userID, likedCount)
		if err != nil {
			return err
		}

		if JSONOutput() {
			return json.NewEncoder(os.Stdout).Encode(picks)
		}
		if len(picks) == 0 {
			fmt.Println("No liked tracks yet. Use 'turntable like' while a track plays.")
			return nil
		}
		table := NewTable("TRACK", "ARTIST", "ALBUM")
		for _, t := range picks {
			table.Row(TruncateString(t.Name, 40), TruncateString(t.ArtistNames(), 30), TruncateString(t.Album.Name, 30))
		}
		table.Flush()
		return nil
	})
}

func runTopArtists(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		ranked, err := a.library.TopArtists(ctx, topArtistsCount)
		if err != nil {
			return err
		}

		if JSONOutput() {
			return json.NewEncoder(os.Stdout).Encode(ranked)
		}
		if len(ranked) == 0 {
			fmt.Println("No top tracks yet")
			return nil
		}
		for i, r := range ranked {
			if i > 0 {
				fmt.Println()
			}
			fmt.Printf("%d. %s (%d top tracks)\n", i+1, r.Artist.Name, r.Count)
			if len(r.Tracks) == 0 {
				fmt.Println("   no popular tracks available")
				continue
			}
			for _, t := range r.Tracks[:min(len(r.Tracks), 5)] {
				fmt.Printf("   %s\n", TruncateString(t.Name, 50))
			}
		}
		return nil
	})
}

func runPlaylistList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		playlists, err := a.library.Playlists(ctx)
		if err != nil {
			return err
		}

		if JSONOutput() {
			return json.NewEncoder(os.Stdout).Encode(playlists)
		}
		if len(playlists) == 0 {
			fmt.Println("No playlists")
			return nil
		}
		table := NewTable("ID", "NAME")
		for _, p := range playlists {
			table.Row(p.ID, TruncateString(p.Name, 50))
		}
		table.Flush()
		return nil
	})
}

func runPlaylistAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		snap := a.controller(ctx).Snapshot()

		var track core.Track
		switch {
		case playlistAddFrom > 0:
			if playlistAddFrom > len(snap.History) {
				return fmt.Errorf("history has %d entries", len(snap.History))
			}
			track = snap.History[playlistAddFrom-1]
		case snap.Current != nil:
			track = *snap.Current
		default:
			return tterrors.ErrNoCurrentTrack
		}

		var playlist core.Playlist
		if len(args) == 1 {
			p, err := a.library.FindPlaylist(ctx, args[0])
			if err != nil {
				return err
			}
			playlist = p
		} else {
			playlists, err := a.library.Playlists(ctx)
			if err != nil {
				return err
			}
			interactive := wizard.NewInteractive(a.library)
			interactive.SetEnabled(!JSONOutput())
			if !interactive.CanInteract() {
				return errors.New("playlist required when not running in a terminal")
			}
			picked, err := interactive.PromptPlaylist(playlists)
			if err != nil {
				return err
			}
			if picked == nil {
				return nil
			}
			playlist = *picked
		}

		err := a.library.AddToPlaylist(ctx, playlist.ID, track)
		if errors.Is(err, tterrors.ErrAlreadyInPlaylist) {
			if JSONOutput() {
				_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
					"status":   "exists",
					"playlist": playlist.ID,
					"track":    track.URI,
				})
			} else {
				fmt.Printf("%s is already in %s\n", trackLine(track), playlist.Name)
			}
			return nil
		}
		if err != nil {
			return err
		}

		if JSONOutput() {
			_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
				"status":   "added",
				"playlist": playlist.ID,
				"track":    track.URI,
			})
		} else {
			fmt.Printf("Added %s to %s\n", trackLine(track), playlist.Name)
		}
		return nil
	})
}

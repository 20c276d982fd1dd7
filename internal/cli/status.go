package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/tessro/turntable/internal/core"
)

const trackLinkBase = "https://open.spotify.com/track/"

var statusCopy bool

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"now"},
	Short:   "Show current playback status",
	Long: `Shows the track playing on your Spotify account, its progress, the
device, and whether you liked it.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusCopy, "copy", false, "copy a link to the current track to the clipboard")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		ctrl := a.controller(ctx)

		tok := ctrl.Observe()
		live, err := a.player.CurrentPlayback(ctx)
		if err != nil {
			return err
		}
		// Nothing else issues commands here, so the snapshot always applies.
		_ = ctrl.ApplySnapshot(tok, live)
		snap := ctrl.Snapshot()

		if !live.HasTrack() {
			if JSONOutput() {
				_ = json.NewEncoder(os.Stdout).Encode(map[string]any{
					"playing": false,
					"message": "No active playback",
				})
			} else {
				fmt.Println("No active playback")
			}
			return nil
		}

		track := *live.Track
		if snap.Current != nil && snap.Current.ID == track.ID {
			track.Liked = snap.Current.Liked
		}

		if statusCopy {
			if err := clipboard.WriteAll(trackLinkBase + track.ID); err != nil {
				return fmt.Errorf("failed to copy to clipboard: %w", err)
			}
		}

		if JSONOutput() {
			return outputStatusJSON(live, track)
		}
		outputStatusText(live, track)
		if statusCopy {
			fmt.Println("    🔗 Link copied to clipboard")
		}
		return nil
	})
}

func outputStatusJSON(live *core.PlaybackState, track core.Track) error {
	item := map[string]any{
		"is_playing":       live.IsPlaying,
		"volume":           live.Volume,
		"track":            track,
		"progress_ms":      live.Progress.Milliseconds(),
		"progress_percent": live.ProgressPercent(),
	}
	if live.Device != nil {
		item["device"] = live.Device
	}
	return json.NewEncoder(os.Stdout).Encode(item)
}

func outputStatusText(live *core.PlaybackState, track core.Track) {
	playIcon := "▶"
	if !live.IsPlaying {
		playIcon = "⏸"
	}
	liked := ""
	if track.Liked {
		liked = " ♥"
	}

	fmt.Printf("%s %s%s\n", playIcon, track.Name, liked)
	if track.Album.Name != "" {
		fmt.Printf("    %s · %s\n", track.ArtistNames(), track.Album.Name)
	} else {
		fmt.Printf("    %s\n", track.ArtistNames())
	}

	duration := time.Duration(track.DurationMs) * time.Millisecond
	fmt.Printf("    %s %s / %s\n",
		FormatProgress(int(live.Progress.Milliseconds()), track.DurationMs, 30),
		FormatDuration(int(live.Progress.Seconds())),
		FormatDuration(int(duration.Seconds())))

	if live.Device != nil {
		fmt.Printf("    📱 %s", live.Device.Name)
		if live.Volume > 0 {
			fmt.Printf(" (🔊 %d%%)", live.Volume)
		}
		fmt.Println()
	}
}

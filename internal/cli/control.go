package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/turntable/internal/playback"
)

var (
	volumeUp   bool
	volumeDown bool
)

const volumeStep = 10

var pauseCmd = &cobra.Command{
	Use:     "pause",
	Aliases: []string{"toggle"},
	Short:   "Toggle play/pause",
	Long:    `Pauses playback if it is running, otherwise resumes the current track.`,
	Args:    cobra.NoArgs,
	RunE:    runPause,
}

var nextCmd = &cobra.Command{
	Use:     "next",
	Aliases: []string{"skip"},
	Short:   "Play the next track in history",
	Long: `Moves one step toward the newest history entry and plays it.
Does nothing at the newest entry.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransport(cmd.Context(), "next", "⏭ Next", (*playback.Controller).Next)
	},
}

var prevCmd = &cobra.Command{
	Use:     "prev",
	Aliases: []string{"previous", "back"},
	Short:   "Play the previous track in history",
	Long: `Moves one step toward the oldest history entry and plays it.
Does nothing at the oldest entry.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransport(cmd.Context(), "previous", "⏮ Previous", (*playback.Controller).Prev)
	},
}

var shuffleCmd = &cobra.Command{
	Use:   "shuffle",
	Short: "Play a random track from history",
	Long:  `Plays a random history entry other than the current one.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransport(cmd.Context(), "shuffled", "🔀 Shuffled", (*playback.Controller).Shuffle)
	},
}

var repeatCmd = &cobra.Command{
	Use:     "repeat",
	Aliases: []string{"restart"},
	Short:   "Restart the current track",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransport(cmd.Context(), "restarted", "🔁 Restarted", (*playback.Controller).Repeat)
	},
}

var likeCmd = &cobra.Command{
	Use:   "like",
	Short: "Like or unlike the current track",
	Args:  cobra.NoArgs,
	RunE:  runLike,
}

var seekCmd = &cobra.Command{
	Use:   "seek <position>",
	Short: "Seek within the current track",
	Long: `Seeks to a position in the current track. The position is seconds
or a duration such as 1m30s.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeek,
}

var volumeCmd = &cobra.Command{
	Use:     "volume [level]",
	Aliases: []string{"vol"},
	Short:   "Get or set volume",
	Long: `Shows the device volume, or sets it to a level between 0 and 100.
Use --up or --down to change it in steps of 10.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVolume,
}

func init() {
	volumeCmd.Flags().BoolVarP(&volumeUp, "up", "u", false, "increase volume")
	volumeCmd.Flags().BoolVarP(&volumeDown, "down", "d", false, "decrease volume")
	volumeCmd.MarkFlagsMutuallyExclusive("up", "down")

	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(prevCmd)
	rootCmd.AddCommand(shuffleCmd)
	rootCmd.AddCommand(repeatCmd)
	rootCmd.AddCommand(likeCmd)
	rootCmd.AddCommand(seekCmd)
	rootCmd.AddCommand(volumeCmd)
}

// runTransport runs one controller command and reports the resulting track.
func runTransport(ctx context.Context, status, label string, fn func(*playback.Controller, context.Context) error) error {
	return withApp(ctx, func(a *app) error {
		ctrl := a.controller(ctx)
		if err := fn(ctrl, ctx); err != nil {
			return err
		}
		printTrackStatus(status, label, ctrl.Snapshot())
		return nil
	})
}

func printTrackStatus(status, label string, snap playback.Snapshot) {
	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]any{
			"status":  status,
			"playing": snap.IsPlaying,
			"track":   snap.Current,
		})
		return
	}
	if snap.Current == nil {
		fmt.Println(label)
		return
	}
	fmt.Printf("%s: %s\n", label, trackLine(*snap.Current))
}

func runPause(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		ctrl := a.controller(ctx)
		if err := ctrl.TogglePlayPause(ctx); err != nil {
			return err
		}
		snap := ctrl.Snapshot()
		if snap.IsPlaying {
			printTrackStatus("playing", "▶ Resumed", snap)
		} else {
			printTrackStatus("paused", "⏸ Paused", snap)
		}
		return nil
	})
}

func runLike(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		ctrl := a.controller(ctx)
		if err := ctrl.ToggleLike(ctx); err != nil {
			return err
		}
		snap := ctrl.Snapshot()
		if snap.Current != nil && snap.Current.Liked {
			printTrackStatus("liked", "♥ Liked", snap)
		} else {
			printTrackStatus("unliked", "♡ Unliked", snap)
		}
		return nil
	})
}

// parsePosition accepts whole seconds or a Go duration.
func parsePosition(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("position must not be negative")
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid position: %s", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("position must not be negative")
	}
	return d, nil
}

func runSeek(cmd *cobra.Command, args []string) error {
	pos, err := parsePosition(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		if err := a.controller(ctx).Seek(ctx, int(pos.Milliseconds())); err != nil {
			return err
		}
		if JSONOutput() {
			_ = json.NewEncoder(os.Stdout).Encode(map[string]any{
				"status":      "seeked",
				"position_ms": pos.Milliseconds(),
			})
		} else {
			fmt.Printf("⏩ Seeked to %s\n", FormatDuration(int(pos.Seconds())))
		}
		return nil
	})
}

func runVolume(cmd *cobra.Command, args []string) error {
	var target *int
	if len(args) > 0 {
		val, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid volume level: %s", args[0])
		}
		if val < 0 || val > 100 {
			return fmt.Errorf("volume must be between 0 and 100")
		}
		target = &val
	}

	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		state, err := a.player.CurrentPlayback(ctx)
		if err != nil {
			return err
		}
		current := 0
		if state != nil {
			current = state.Volume
		}

		switch {
		case volumeUp:
			v := min(current+volumeStep, 100)
			target = &v
		case volumeDown:
			v := max(current-volumeStep, 0)
			target = &v
		}

		if target == nil {
			if JSONOutput() {
				_ = json.NewEncoder(os.Stdout).Encode(map[string]any{"volume": current})
			} else {
				fmt.Printf("🔊 Volume: %d%%\n", current)
			}
			return nil
		}

		if err := a.controller(ctx).SetVolume(ctx, *target); err != nil {
			return err
		}
		if JSONOutput() {
			_ = json.NewEncoder(os.Stdout).Encode(map[string]any{
				"volume":   *target,
				"previous": current,
			})
		} else {
			fmt.Printf("🔊 Volume: %d%% → %d%%\n", current, *target)
		}
		return nil
	})
}

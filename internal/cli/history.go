package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/turntable/internal/core"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"hist"},
	Short:   "Show recently played tracks",
	Long: `Lists the listening history, newest first. The history holds each
track once, at the position of its most recent play.`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyRemoveCmd = &cobra.Command{
	Use:     "remove <track-id|index>",
	Aliases: []string{"rm"},
	Short:   "Remove a track from history",
	Long: `Removes a track from the listening history. The track is identified by
its Spotify id or by its 1-based position in 'turntable history'.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryRemove,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show at most n entries")
	historyCmd.AddCommand(historyRemoveCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		snap := a.controller(ctx).Snapshot()
		entries := snap.History
		if historyLimit > 0 && len(entries) > historyLimit {
			entries = entries[:historyLimit]
		}

		if JSONOutput() {
			return json.NewEncoder(os.Stdout).Encode(entries)
		}

		if len(entries) == 0 {
			fmt.Println("No listening history yet")
			return nil
		}

		currentID := ""
		if snap.Current != nil {
			currentID = snap.Current.ID
		}

		table := NewTable("#", "", "TRACK", "ARTIST", "PLAYED")
		for i, t := range entries {
			table.Row(
				strconv.Itoa(i+1),
				historyMarker(t, currentID),
				TruncateString(t.Name, 40),
				TruncateString(t.ArtistNames(), 30),
				playedAgo(t.PlayedAt),
			)
		}
		table.Flush()
		return nil
	})
}

func historyMarker(t core.Track, currentID string) string {
	switch {
	case t.ID == currentID:
		return "▶"
	case t.Liked:
		return "♥"
	default:
		return ""
	}
}

func playedAgo(playedAt *int64) string {
	if playedAt == nil {
		return ""
	}
	return humanize.Time(time.UnixMilli(*playedAt))
}

func runHistoryRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		ctrl := a.controller(ctx)
		history := ctrl.Snapshot().History

		id := args[0]
		if n, err := strconv.Atoi(id); err == nil {
			if n < 1 || n > len(history) {
				return fmt.Errorf("history has %d entries", len(history))
			}
			id = history[n-1].ID
		}

		var removed *core.Track
		for i := range history {
			if history[i].ID == id {
				removed = &history[i]
				break
			}
		}
		if removed == nil {
			return fmt.Errorf("track %s is not in history", id)
		}

		if err := ctrl.RemoveFromHistory(ctx, id); err != nil {
			return err
		}

		if JSONOutput() {
			_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
				"status":   "removed",
				"track_id": id,
			})
		} else {
			fmt.Printf("Removed %s from history\n", trackLine(*removed))
		}
		return nil
	})
}

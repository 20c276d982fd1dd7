package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/turntable/internal/core"
	"github.com/tessro/turntable/internal/playback"
	"github.com/tessro/turntable/internal/tail"
)

const tailBacklog = 5

var (
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
	tailInterval  time.Duration
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow playback changes in real-time",
	Long: `Watch for playback state changes and print them as they happen.
The session follows along, so 'turntable history' stays accurate.

Events tracked:
  - Track changes (new song started)
  - Track completions (song finished)
  - Track skips (song skipped before completion)
  - Pause/Resume
  - Volume changes
  - Device changes`,
	Args: cobra.NoArgs,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output")
	tailCmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	tailCmd.Flags().StringVarP(&tailFormat, "format", "f", "", "custom format template")
	tailCmd.Flags().DurationVarP(&tailInterval, "interval", "i", 0, "poll interval (default from config)")

	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	noEmoji := cfg.Tail.Plain
	if cmd.Flags().Changed("no-emoji") {
		noEmoji = tailNoEmoji
	}
	timestamp := cfg.Tail.Timestamp || tailTimestamp
	format := cfg.Tail.Format
	if tailFormat != "" {
		format = tailFormat
	}
	interval := time.Duration(cfg.Tail.Interval) * time.Millisecond
	if tailInterval > 0 {
		interval = tailInterval
	}

	formatter := tail.NewFormatter(
		tail.WithEmoji(!noEmoji),
		tail.WithTimestamp(timestamp),
		tail.WithTemplate(format),
	)

	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		ctrl := a.controller(ctx)
		showBacklog(ctrl.Snapshot(), !noEmoji, timestamp)

		watcher := tail.NewWatcher(a.player, interval,
			tail.WithSink(ctrl),
			tail.WithLogger(logger),
		)

		errCh := make(chan error, 1)
		go func() {
			errCh <- watcher.Start(ctx)
		}()

		for event := range watcher.Events() {
			fmt.Println(formatter.Format(event))
		}

		err := <-errCh
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

// showBacklog prints the newest history entries, oldest first, so the live
// events continue below them.
func showBacklog(snap playback.Snapshot, emoji, timestamp bool) {
	entries := snap.History[:min(len(snap.History), tailBacklog)]
	for i := len(entries) - 1; i >= 0; i-- {
		fmt.Println(backlogLine(entries[i], emoji, timestamp))
	}
}

func backlogLine(t core.Track, emoji, timestamp bool) string {
	prefix := ""
	if timestamp && t.PlayedAt != nil {
		prefix = time.UnixMilli(*t.PlayedAt).Local().Format("15:04:05") + " "
	}
	if emoji {
		prefix += "⏪ "
	}
	return prefix + trackLine(t)
}

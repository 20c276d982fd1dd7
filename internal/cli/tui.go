package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/turntable/internal/tui"
)

var tuiRefresh int

var tuiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch interactive dashboard",
	Long: `Launch the interactive terminal dashboard.

The dashboard provides a live view with:
  • Now Playing - current track, progress, device
  • History - recently played tracks, newest first
  • Liked - a random pick of liked tracks
  • Devices - available playback devices

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  /            Search
  Space        Play/Pause
  n            Next track
  p            Previous track
  s            Shuffle history
  R            Repeat current track
  l            Like/unlike
  +/-          Volume up/down
  ←/→          Seek
  Tab          Switch panel
  Enter        Play selected track
  d            Remove selected track from history`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVar(&tuiRefresh, "refresh", 0, "refresh interval in milliseconds (default from config)")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	refresh := cfg.TUI.RefreshInterval
	if tuiRefresh > 0 {
		refresh = tuiRefresh
	}

	ctx := cmd.Context()
	return withApp(ctx, func(a *app) error {
		// The dashboard can run signed out; commands then report the error.
		userID, _ := a.userID(ctx)

		tui.ApplyTheme(cfg.TUI.Theme)
		return tui.Run(ctx, &tui.App{
			Controller:  a.controller(ctx),
			Library:     a.library,
			Player:      a.player,
			UserID:      userID,
			RefreshRate: time.Duration(refresh) * time.Millisecond,
			SyncRate:    cfg.Playback.ReconcileInterval(),
			Timeout:     cfg.Playback.RemoteTimeout(),
			Logger:      logger,
		})
	})
}

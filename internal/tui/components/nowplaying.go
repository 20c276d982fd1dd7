package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/turntable/internal/core"
	"github.com/tessro/turntable/internal/tui/styles"
)

// NowPlaying displays the session's current track
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel. live may be nil or lag behind
// current; it only contributes progress, device and volume.
func (n *NowPlaying) Render(current *core.Track, isPlaying bool, live *core.PlaybackState, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	if current == nil {
		content = styles.Muted.Render("Nothing playing. Press / to search.")
	} else {
		content = n.renderTrack(current, isPlaying, live, width-4)
	}

	panel := styles.Panel("", focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (n *NowPlaying) renderTrack(track *core.Track, isPlaying bool, live *core.PlaybackState, width int) string {
	icon := styles.StatusIcon(isPlaying)
	name := styles.Title.Width(max(width-4, 1)).Render(truncate(track.Name, width-4))
	if track.Liked {
		name += " " + styles.Liked.Render("♥")
	}

	artist := styles.Subtitle.Render(truncate(track.ArtistNames(), width-2))

	total := time.Duration(track.DurationMs) * time.Millisecond
	var elapsed time.Duration
	var percent float64
	switch {
	case live.HasTrack() && live.Track.ID == track.ID:
		elapsed = live.Progress
		percent = live.ProgressPercent()
	case track.ProgressMs != nil:
		elapsed = time.Duration(*track.ProgressMs) * time.Millisecond
		if total > 0 {
			percent = float64(elapsed) / float64(total) * 100
		}
	}

	progressWidth := max(width-14, 10)
	progress := fmt.Sprintf("%s %s %s",
		formatDuration(elapsed),
		styles.ProgressBar(percent, progressWidth),
		formatDuration(total))

	deviceInfo := ""
	if live != nil && live.Device != nil {
		deviceInfo = fmt.Sprintf("%s %s", styles.DeviceIcon(string(live.Device.Type)), live.Device.Name)
		if live.Volume > 0 {
			deviceInfo += fmt.Sprintf(" 🔊 %d%%", live.Volume)
		}
		deviceInfo = styles.Muted.Render(deviceInfo)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+name,
		"  "+artist,
		"",
		progress,
		"",
		deviceInfo,
		n.renderControls(isPlaying),
	)
}

func (n *NowPlaying) renderControls(isPlaying bool) string {
	controls := styles.Dim.Render("⏮ ")
	if isPlaying {
		controls += styles.Playing.Render("⏸")
	} else {
		controls += styles.Paused.Render("▶")
	}
	controls += styles.Dim.Render(" ⏭")

	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Render(controls)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}

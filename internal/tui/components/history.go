package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/tessro/turntable/internal/core"
	"github.com/tessro/turntable/internal/tui/styles"
)

// History displays the session's play history, newest first.
type History struct {
	Cursor
	now func() time.Time
}

// NewHistory creates a new History component
func NewHistory() *History {
	return &History{now: time.Now}
}

// Render renders the history panel. currentID marks the track playing now.
func (h *History) Render(entries []core.Track, currentID string, width, height int, focused bool) string {
	title := styles.PanelTitle(fmt.Sprintf("History (%d)", len(entries)), focused)

	var content string
	if len(entries) == 0 {
		content = styles.Muted.Render("No history yet")
	} else {
		content = h.renderHistory(entries, currentID, width-4, height-4, focused)
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

func (h *History) renderHistory(entries []core.Track, currentID string, width, maxLines int, focused bool) string {
	selected := h.Index(len(entries))
	start, end := window(len(entries), selected, maxLines)
	lines := make([]string, 0, end-start)

	// icon (2) + " — " (3) + gap before time (2)
	const overhead = 7

	for i := start; i < end; i++ {
		track := entries[i]

		timeAgo := h.playedAgo(track)
		timeWidth := runewidth.StringWidth(timeAgo)

		icon := " "
		switch {
		case track.ID == currentID:
			icon = styles.Playing.Render("▶")
		case track.Liked:
			icon = styles.Liked.Render("♥")
		}

		title, artist := fitTitleArtist(track.Name, track.ArtistNames(), width-overhead-timeWidth)
		info := title + " — " + styles.Muted.Render(artist)
		infoWidth := runewidth.StringWidth(title) + 3 + runewidth.StringWidth(artist)
		if focused && i == selected {
			info = styles.Highlight.Render(title) + " — " + styles.Muted.Render(artist)
		}

		padding := max(width-2-infoWidth-timeWidth, 1)
		line := fmt.Sprintf("%s %s%s%s",
			icon,
			info,
			lipgloss.NewStyle().Width(padding).Render(""),
			styles.Dim.Render(timeAgo))

		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (h *History) playedAgo(t core.Track) string {
	if t.PlayedAt == nil {
		return ""
	}
	played := time.UnixMilli(*t.PlayedAt)
	if h.now().Sub(played) < time.Minute {
		return "now"
	}
	return humanize.RelTime(played, h.now(), "ago", "from now")
}

package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/turntable/internal/core"
	"github.com/tessro/turntable/internal/tui/styles"
)

// Liked displays a handful of liked tracks to jump back into.
type Liked struct {
	Cursor
}

// NewLiked creates a new Liked component
func NewLiked() *Liked {
	return &Liked{}
}

// Render renders the liked panel
func (l *Liked) Render(picks []core.Track, width, height int, focused bool) string {
	title := styles.PanelTitle("Liked", focused)

	var content string
	if len(picks) == 0 {
		content = styles.Muted.Render("Like a track with l to see it here")
	} else {
		content = l.renderPicks(picks, width-4, height-4, focused)
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

func (l *Liked) renderPicks(picks []core.Track, width, maxLines int, focused bool) string {
	selected := l.Index(len(picks))
	start, end := window(len(picks), selected, maxLines)
	lines := make([]string, 0, end-start)

	// "XX. " (4) + "♥ " (2) + " — " (3)
	const overhead = 9

	for i := start; i < end; i++ {
		track := picks[i]
		num := fmt.Sprintf("%2d.", i+1)
		title, artist := fitTitleArtist(track.Name, track.ArtistNames(), width-overhead)

		if focused && i == selected {
			lines = append(lines, styles.Highlight.Render(fmt.Sprintf("%s ♥ %s — %s", num, title, artist)))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s %s — %s",
			styles.Dim.Render(num),
			styles.Liked.Render("♥"),
			title,
			styles.Muted.Render(artist)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

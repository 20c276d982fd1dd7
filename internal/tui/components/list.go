package components

import (
	"github.com/mattn/go-runewidth"
)

// Cursor tracks a selection in a list whose length changes under it.
type Cursor struct {
	index int
}

// Next moves the selection down.
func (c *Cursor) Next(n int) {
	if c.index < n-1 {
		c.index++
	}
}

// Prev moves the selection up.
func (c *Cursor) Prev() {
	if c.index > 0 {
		c.index--
	}
}

// Index returns the selection clamped to a list of length n, or -1 if the
// list is empty.
func (c *Cursor) Index(n int) int {
	if n == 0 {
		return -1
	}
	if c.index >= n {
		c.index = n - 1
	}
	if c.index < 0 {
		c.index = 0
	}
	return c.index
}

// window returns the [start, end) range of n items to show in maxLines rows
// so that selected stays visible.
func window(n, selected, maxLines int) (int, int) {
	if maxLines < 1 {
		maxLines = 1
	}
	if n <= maxLines {
		return 0, n
	}
	start := 0
	if selected >= maxLines {
		start = selected - maxLines + 1
	}
	return start, start + maxLines
}

// fitTitleArtist truncates title and artist so both fit in available
// columns, giving the artist at least a third of the space.
func fitTitleArtist(title, artist string, available int) (string, string) {
	titleLen := runewidth.StringWidth(title)
	artistLen := runewidth.StringWidth(artist)
	if titleLen+artistLen <= available {
		return title, artist
	}

	minArtist := max(available/3, 8)
	if minArtist > available-8 {
		minArtist = available - 8
	}
	artistSpace := min(minArtist, artistLen)
	titleSpace := available - artistSpace

	return truncate(title, titleSpace), truncate(artist, artistSpace)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

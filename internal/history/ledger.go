// Package history holds the bounded, de-duplicated play history.
package history

import (
	"time"

	"github.com/tessro/turntable/internal/core"
)

// DefaultLimit is the maximum number of entries a ledger keeps. Smaller
// caps may be configured; larger ones are clamped.
const DefaultLimit = 50

// Ledger is an ordered list of played tracks, newest first.
// Track IDs are unique within a ledger.
//
// A Ledger is not safe for concurrent use; the playback controller guards it.
type Ledger struct {
	entries []core.Track
	limit   int
	now     func() time.Time
}

// New creates an empty ledger capped at limit entries. A non-positive
// limit means DefaultLimit, and DefaultLimit is also the ceiling.
func New(limit int) *Ledger {
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	return &Ledger{limit: limit, now: time.Now}
}

// SetClock overrides the time source used to stamp PlayedAt.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// Record removes any entry with the same ID, prepends a copy of track stamped
// with the current time and truncates to the cap. It returns the stored copy.
func (l *Ledger) Record(track core.Track) core.Track {
	stamped := *track.Clone()
	playedAt := l.now().UnixMilli()
	stamped.PlayedAt = &playedAt

	l.entries = prepend(l.without(track.ID), stamped)
	l.truncate()
	return stamped
}

// RecordBatch prepends tracks in order, so tracks[0] ends up newest.
// Duplicates inside the batch keep their first occurrence; existing entries
// with the same IDs are removed first. Timestamps descend by one
// millisecond per position so the stored order survives a reload.
func (l *Ledger) RecordBatch(tracks []core.Track) []core.Track {
	base := l.now().UnixMilli()
	seen := make(map[string]bool, len(tracks))
	batch := make([]core.Track, 0, len(tracks))
	for _, t := range tracks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		c := *t.Clone()
		playedAt := base - int64(len(batch))
		c.PlayedAt = &playedAt
		batch = append(batch, c)
	}

	kept := make([]core.Track, 0, len(l.entries))
	for _, e := range l.entries {
		if !seen[e.ID] {
			kept = append(kept, e)
		}
	}

	l.entries = append(batch, kept...)
	l.truncate()
	if len(batch) > l.limit {
		batch = batch[:l.limit]
	}
	return batch
}

// Remove deletes the entry with the given ID. It reports whether an entry
// was present; removing an absent ID is a no-op.
func (l *Ledger) Remove(id string) bool {
	if l.IndexOf(id) < 0 {
		return false
	}
	l.entries = l.without(id)
	return true
}

// Replace swaps the whole ledger for tracks, keeping their order, dropping
// later duplicates and truncating to the cap.
func (l *Ledger) Replace(tracks []core.Track) {
	seen := make(map[string]bool, len(tracks))
	entries := make([]core.Track, 0, len(tracks))
	for _, t := range tracks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		entries = append(entries, *t.Clone())
	}
	l.entries = entries
	l.truncate()
}

// SetLiked patches the liked flag of the entry with the given ID.
func (l *Ledger) SetLiked(id string, liked bool) bool {
	i := l.IndexOf(id)
	if i < 0 {
		return false
	}
	l.entries[i].Liked = liked
	return true
}

// IndexOf returns the position of id (0 is newest) or -1.
func (l *Ledger) IndexOf(id string) int {
	for i := range l.entries {
		if l.entries[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns a copy of the entry with the given ID.
func (l *Ledger) Get(id string) (core.Track, bool) {
	i := l.IndexOf(id)
	if i < 0 {
		return core.Track{}, false
	}
	return *l.entries[i].Clone(), true
}

// At returns a copy of the entry at position i.
func (l *Ledger) At(i int) (core.Track, bool) {
	if i < 0 || i >= len(l.entries) {
		return core.Track{}, false
	}
	return *l.entries[i].Clone(), true
}

// Tracks returns a copy of all entries, newest first.
func (l *Ledger) Tracks() []core.Track {
	out := make([]core.Track, len(l.entries))
	for i := range l.entries {
		out[i] = *l.entries[i].Clone()
	}
	return out
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Limit returns the cap.
func (l *Ledger) Limit() int {
	return l.limit
}

func (l *Ledger) without(id string) []core.Track {
	out := make([]core.Track, 0, len(l.entries)+1)
	for _, e := range l.entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

func (l *Ledger) truncate() {
	if len(l.entries) > l.limit {
		l.entries = l.entries[:l.limit]
	}
}

func prepend(entries []core.Track, t core.Track) []core.Track {
	entries = append(entries, core.Track{})
	copy(entries[1:], entries)
	entries[0] = t
	return entries
}

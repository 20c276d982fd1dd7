package core

import (
	"errors"
	"strings"
)

// Artist is a credited performer on a track.
type Artist struct {
	Name string `json:"name"`
}

// Image is a piece of album artwork.
type Image struct {
	URL string `json:"url"`
}

// Album carries the artwork of the album a track belongs to.
// Images are ordered largest first.
type Album struct {
	Images []Image `json:"images"`
}

// Track is the canonical playable item used throughout turntable.
//
// Every producer (search, top tracks, playlists, album listings, stored
// history rows, live playback snapshots) maps its payload into this shape
// before it reaches the playback controller.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	URI        string   `json:"uri"`
	DurationMs int      `json:"duration_ms"`

	// ProgressMs is the last known playback offset. Only meaningful right
	// after reconciliation with the remote device.
	ProgressMs *int `json:"progress_ms,omitempty"`

	// PlayedAt is the epoch-millisecond time the track last started playing.
	// Set by the controller, never by callers.
	PlayedAt *int64 `json:"played_at,omitempty"`

	Liked bool `json:"liked"`
}

// Validate checks the fields every producer must supply.
func (t *Track) Validate() error {
	if t == nil {
		return errors.New("track is nil")
	}
	var missing []string
	if t.ID == "" {
		missing = append(missing, "id")
	}
	if t.Name == "" {
		missing = append(missing, "name")
	}
	if len(t.Artists) == 0 || t.Artists[0].Name == "" {
		missing = append(missing, "artist")
	}
	if t.URI == "" {
		missing = append(missing, "uri")
	}
	if len(missing) > 0 {
		return errors.New("missing " + strings.Join(missing, ", "))
	}
	return nil
}

// Clone returns a deep copy of the track.
func (t *Track) Clone() *Track {
	if t == nil {
		return nil
	}
	c := *t
	if t.Artists != nil {
		c.Artists = append([]Artist(nil), t.Artists...)
	}
	if t.Album.Images != nil {
		c.Album.Images = append([]Image(nil), t.Album.Images...)
	}
	if t.ProgressMs != nil {
		p := *t.ProgressMs
		c.ProgressMs = &p
	}
	if t.PlayedAt != nil {
		p := *t.PlayedAt
		c.PlayedAt = &p
	}
	return &c
}

// PrimaryArtist returns the first credited artist's name.
func (t *Track) PrimaryArtist() string {
	if t == nil || len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// ArtistNames joins all artist names with ", ".
func (t *Track) ArtistNames() string {
	if t == nil {
		return ""
	}
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// ArtworkURL returns the largest album image, or "" if there is none.
func (t *Track) ArtworkURL() string {
	if t == nil || len(t.Album.Images) == 0 {
		return ""
	}
	return t.Album.Images[0].URL
}

// ArtistsFromNames builds an artist list from plain names.
func ArtistsFromNames(names ...string) []Artist {
	artists := make([]Artist, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			artists = append(artists, Artist{Name: n})
		}
	}
	return artists
}

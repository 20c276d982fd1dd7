package player

import (
	"time"

	"github.com/tessro/turntable/internal/core"
	"github.com/tessro/turntable/internal/spotify/client"
)

// Each API surface returns tracks in a slightly different shape. These are
// the only places a client.Track becomes a core.Track.

// FromSearchTrack maps a track from search results.
func FromSearchTrack(t *client.Track) core.Track {
	return convertTrack(t, t.Album.Images)
}

// FromTopTrack maps a track from the top tracks or artist top tracks lists.
func FromTopTrack(t *client.Track) core.Track {
	return convertTrack(t, t.Album.Images)
}

// FromPlaylistItem maps a playlist entry. Entries whose track was removed
// or is a local file report false.
func FromPlaylistItem(item *client.PlaylistItem) (core.Track, bool) {
	if item == nil || item.Track == nil || item.Track.URI == "" {
		return core.Track{}, false
	}
	return convertTrack(item.Track, item.Track.Album.Images), true
}

// FromAlbumTrack maps a simplified album track, taking artwork from album
// because album listings omit it per track.
func FromAlbumTrack(t *client.Track, album *client.Album) core.Track {
	var images []client.Image
	if album != nil {
		images = album.Images
	}
	if len(t.Album.Images) > 0 {
		images = t.Album.Images
	}
	return convertTrack(t, images)
}

// FromPlaybackSnapshot maps the live player state. It returns nil when
// nothing is active.
func FromPlaybackSnapshot(state *client.PlaybackState) *core.PlaybackState {
	if state == nil {
		return nil
	}

	s := &core.PlaybackState{
		IsPlaying: state.IsPlaying,
		Progress:  time.Duration(state.ProgressMS) * time.Millisecond,
	}

	if state.Device.VolumePercent != nil {
		s.Volume = *state.Device.VolumePercent
	}
	if state.Device.ID != "" {
		s.Device = convertDevice(&state.Device)
	}
	if state.Item != nil && state.Item.ID != "" {
		t := convertTrack(state.Item, state.Item.Album.Images)
		progress := state.ProgressMS
		t.ProgressMs = &progress
		s.Track = &t
	}
	return s
}

func convertTrack(t *client.Track, images []client.Image) core.Track {
	artists := make([]core.Artist, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = core.Artist{Name: a.Name}
	}

	album := core.Album{Images: make([]core.Image, len(images))}
	for i, img := range images {
		album.Images[i] = core.Image{URL: img.URL}
	}

	return core.Track{
		ID:         t.ID,
		Name:       t.Name,
		Artists:    artists,
		Album:      album,
		URI:        t.URI,
		DurationMs: t.DurationMS,
	}
}

// convertDevice converts a Spotify device to a core device.
func convertDevice(d *client.Device) *core.Device {
	if d == nil {
		return nil
	}

	deviceType := core.DeviceTypeOther
	switch d.Type {
	case "Computer":
		deviceType = core.DeviceTypeComputer
	case "Smartphone", "Tablet":
		deviceType = core.DeviceTypePhone
	case "Speaker", "CastAudio", "AVR":
		deviceType = core.DeviceTypeSpeaker
	case "TV", "CastVideo":
		deviceType = core.DeviceTypeTV
	}

	return &core.Device{
		ID:            d.ID,
		Name:          d.Name,
		Type:          deviceType,
		IsActive:      d.IsActive,
		IsRestricted:  d.IsRestricted,
		VolumePercent: d.VolumePercent,
	}
}

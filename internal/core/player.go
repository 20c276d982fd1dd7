package core

import "context"

// PlayRequest describes what a play command should start.
// Exactly one of URIs or ContextURI is expected; an empty request resumes.
type PlayRequest struct {
	URIs       []string
	ContextURI string
	Offset     int
}

// RemotePlayer issues transport commands against the user's playback device.
type RemotePlayer interface {
	// Devices
	ListDevices(ctx context.Context) ([]Device, error)

	// Transport
	Play(ctx context.Context, deviceID string, req PlayRequest) error
	Pause(ctx context.Context, deviceID string) error
	Seek(ctx context.Context, positionMs int) error
	SetVolume(ctx context.Context, percent int) error

	// CurrentPlayback returns nil when nothing is active on any device.
	CurrentPlayback(ctx context.Context) (*PlaybackState, error)

	// AlbumTracks lists an album's tracks, already mapped to Track.
	AlbumTracks(ctx context.Context, albumID string) ([]Track, error)
}

// Playlist is a user-owned playlist summary.
type Playlist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ArtistRef identifies an artist in the catalog.
type ArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RankedTrack is a track together with catalog references to its artists.
type RankedTrack struct {
	Track   Track
	Artists []ArtistRef
}

// Catalog exposes the browse surfaces of the streaming API.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) ([]Track, error)
	SearchAlbums(ctx context.Context, query string, limit int) ([]AlbumSummary, error)
	TopTracks(ctx context.Context, limit int) ([]RankedTrack, error)
	ArtistTopTracks(ctx context.Context, artistID string) ([]Track, error)
	Playlists(ctx context.Context) ([]Playlist, error)
	PlaylistTrackURIs(ctx context.Context, playlistID string) ([]string, error)
	AddToPlaylist(ctx context.Context, playlistID string, uris ...string) error
}

// AlbumSummary is an album search hit.
type AlbumSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []Artist `json:"artists"`
	ReleaseDate string   `json:"release_date"`
	TotalTracks int      `json:"total_tracks"`
}

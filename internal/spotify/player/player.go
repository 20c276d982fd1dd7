package player

import (
	"context"

	"github.com/tessro/turntable/internal/core"
	tterrors "github.com/tessro/turntable/internal/errors"
	"github.com/tessro/turntable/internal/spotify/client"
)

// DefaultMarket is used where the API insists on a market.
const DefaultMarket = "US"

// Player implements core.RemotePlayer and core.Catalog for Spotify.
type Player struct {
	client *client.Client
	market string
}

// New creates a new Spotify player. An empty market means DefaultMarket.
func New(c *client.Client, market string) *Player {
	if market == "" {
		market = DefaultMarket
	}
	return &Player{client: c, market: market}
}

// ListDevices returns the user's available playback devices.
func (p *Player) ListDevices(ctx context.Context) ([]core.Device, error) {
	devices, err := p.client.GetDevices(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]core.Device, 0, len(devices))
	for i := range devices {
		if devices[i].ID == "" {
			continue
		}
		result = append(result, *convertDevice(&devices[i]))
	}
	return result, nil
}

// Play starts req on deviceID. An empty request resumes playback.
func (p *Player) Play(ctx context.Context, deviceID string, req core.PlayRequest) error {
	var opts *client.PlayOptions
	switch {
	case req.ContextURI != "":
		opts = &client.PlayOptions{ContextURI: req.ContextURI}
		if req.Offset > 0 {
			opts.Offset = &client.PlayOffset{Position: req.Offset}
		}
	case len(req.URIs) > 0:
		opts = &client.PlayOptions{URIs: req.URIs}
	}

	err := p.client.Play(ctx, deviceID, opts)
	if opts == nil && client.IsAlreadyPlayingError(err) {
		return nil
	}
	return deviceError(err)
}

// Pause pauses playback.
func (p *Player) Pause(ctx context.Context, deviceID string) error {
	return deviceError(p.client.Pause(ctx, deviceID))
}

// Seek seeks to a position in the current track.
func (p *Player) Seek(ctx context.Context, positionMs int) error {
	return deviceError(p.client.Seek(ctx, positionMs, ""))
}

// SetVolume sets the playback volume (0-100).
func (p *Player) SetVolume(ctx context.Context, percent int) error {
	return deviceError(p.client.SetVolume(ctx, percent, ""))
}

// CurrentPlayback returns the live snapshot, or nil when nothing is active.
func (p *Player) CurrentPlayback(ctx context.Context) (*core.PlaybackState, error) {
	state, err := p.client.GetPlaybackState(ctx)
	if err != nil {
		return nil, err
	}
	return FromPlaybackSnapshot(state), nil
}

// AlbumTracks lists an album's tracks with the album's artwork attached.
func (p *Player) AlbumTracks(ctx context.Context, albumID string) ([]core.Track, error) {
	album, err := p.client.GetAlbum(ctx, albumID, p.market)
	if err != nil {
		return nil, err
	}

	tracks := make([]core.Track, 0, len(album.Tracks.Items))
	for i := range album.Tracks.Items {
		tracks = append(tracks, FromAlbumTrack(&album.Tracks.Items[i], &album.Album))
	}
	return tracks, nil
}

// deviceError tags "no active device" responses.
func deviceError(err error) error {
	if client.IsNoActiveDeviceError(err) {
		return tterrors.Wrap(tterrors.ErrNoPlaybackDevice, err)
	}
	return err
}

var (
	_ core.RemotePlayer = (*Player)(nil)
	_ core.Catalog      = (*Player)(nil)
)

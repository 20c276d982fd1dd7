package client

import (
	"context"
	"strconv"
)

// PlayOptions is the body of a play request. The zero value resumes.
type PlayOptions struct {
	ContextURI string      `json:"context_uri,omitempty"`
	URIs       []string    `json:"uris,omitempty"`
	Offset     *PlayOffset `json:"offset,omitempty"`
	PositionMS int         `json:"position_ms,omitempty"`
}

// PlayOffset picks the first track of a context, by index or URI.
type PlayOffset struct {
	Position int    `json:"position,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// playerPath builds a /me/player endpoint. An empty deviceID targets the
// account's active device.
func playerPath(endpoint, deviceID string, params map[string]string) string {
	if deviceID != "" {
		if params == nil {
			params = make(map[string]string, 1)
		}
		params["device_id"] = deviceID
	}
	return BuildURL("/me/player"+endpoint, params)
}

// GetDevices lists the devices Spotify Connect can target.
func (c *Client) GetDevices(ctx context.Context) ([]Device, error) {
	var resp DevicesResponse
	if err := c.Get(ctx, playerPath("/devices", "", nil), &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// GetPlaybackState returns the live snapshot. A 204 from the API, meaning
// no session at all, comes back as nil.
func (c *Client) GetPlaybackState(ctx context.Context) (*PlaybackState, error) {
	var state PlaybackState
	if err := c.Get(ctx, playerPath("", "", nil), &state); err != nil {
		return nil, err
	}
	if state.Item == nil && state.Device.ID == "" {
		return nil, nil
	}
	return &state, nil
}

// Play sends a play request to deviceID. A nil opts resumes.
func (c *Client) Play(ctx context.Context, deviceID string, opts *PlayOptions) error {
	// The endpoint rejects an empty body, even for a resume.
	if opts == nil {
		opts = &PlayOptions{}
	}
	return c.Put(ctx, playerPath("/play", deviceID, nil), opts, nil)
}

// Pause pauses deviceID.
func (c *Client) Pause(ctx context.Context, deviceID string) error {
	return c.Put(ctx, playerPath("/pause", deviceID, nil), nil, nil)
}

// Seek moves the playhead to positionMs.
func (c *Client) Seek(ctx context.Context, positionMs int, deviceID string) error {
	params := map[string]string{"position_ms": strconv.Itoa(positionMs)}
	return c.Put(ctx, playerPath("/seek", deviceID, params), nil, nil)
}

// SetVolume sets the device volume in percent.
func (c *Client) SetVolume(ctx context.Context, percent int, deviceID string) error {
	params := map[string]string{"volume_percent": strconv.Itoa(percent)}
	return c.Put(ctx, playerPath("/volume", deviceID, params), nil, nil)
}

package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// GetCurrentUser returns the current user's profile.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.Get(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchType represents a type of Spotify content to search.
type SearchType string

const (
	SearchTypeTrack SearchType = "track"
	SearchTypeAlbum SearchType = "album"
)

// SearchOptions configures a search query.
type SearchOptions struct {
	Query  string
	Types  []SearchType
	Limit  int
	Offset int
	Market string
}

// Search performs a search query.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (*SearchResponse, error) {
	if opts.Query == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	types := make([]string, len(opts.Types))
	for i, t := range opts.Types {
		types[i] = string(t)
	}
	if len(types) == 0 {
		types = []string{string(SearchTypeTrack)}
	}

	params := map[string]string{
		"q":    opts.Query,
		"type": strings.Join(types, ","),
	}

	if opts.Limit > 0 {
		params["limit"] = strconv.Itoa(opts.Limit)
	}
	if opts.Offset > 0 {
		params["offset"] = strconv.Itoa(opts.Offset)
	}
	if opts.Market != "" {
		params["market"] = opts.Market
	}

	var resp SearchResponse
	if err := c.Get(ctx, BuildURL("/search", params), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTopTracks returns the user's most played tracks for a time range
// (short_term, medium_term, long_term).
func (c *Client) GetTopTracks(ctx context.Context, limit int, timeRange string) ([]Track, error) {
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	if timeRange != "" {
		params["time_range"] = timeRange
	}

	var resp TopTracksResponse
	if err := c.Get(ctx, BuildURL("/me/top/tracks", params), &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// GetArtistTopTracks returns an artist's most popular tracks in a market.
func (c *Client) GetArtistTopTracks(ctx context.Context, artistID, market string) ([]Track, error) {
	params := map[string]string{}
	if market != "" {
		params["market"] = market
	}

	var resp ArtistTopTracksResponse
	path := BuildURL("/artists/"+url.PathEscape(artistID)+"/top-tracks", params)
	if err := c.Get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Tracks, nil
}

// GetAlbum returns an album together with its first page of tracks.
func (c *Client) GetAlbum(ctx context.Context, albumID, market string) (*FullAlbum, error) {
	params := map[string]string{}
	if market != "" {
		params["market"] = market
	}

	var album FullAlbum
	if err := c.Get(ctx, BuildURL("/albums/"+url.PathEscape(albumID), params), &album); err != nil {
		return nil, err
	}
	return &album, nil
}

// GetMyPlaylists returns the current user's playlists, following pagination.
func (c *Client) GetMyPlaylists(ctx context.Context) ([]Playlist, error) {
	var all []Playlist
	path := BuildURL("/me/playlists", map[string]string{"limit": "50"})
	for path != "" {
		var page PlaylistsResponse
		if err := c.Get(ctx, path, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		path = c.relative(page.Next)
	}
	return all, nil
}

// GetPlaylistItems returns every item of a playlist, following pagination.
func (c *Client) GetPlaylistItems(ctx context.Context, playlistID string) ([]PlaylistItem, error) {
	var all []PlaylistItem
	path := BuildURL("/playlists/"+url.PathEscape(playlistID)+"/tracks", map[string]string{"limit": "100"})
	for path != "" {
		var page PlaylistItemsResponse
		if err := c.Get(ctx, path, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		path = c.relative(page.Next)
	}
	return all, nil
}

// AddPlaylistItems appends URIs to a playlist.
func (c *Client) AddPlaylistItems(ctx context.Context, playlistID string, uris []string) error {
	body := map[string]any{"uris": uris}
	return c.Post(ctx, "/playlists/"+url.PathEscape(playlistID)+"/tracks", body, nil)
}

// relative turns an absolute "next" link into a path under the base URL.
func (c *Client) relative(next string) string {
	if next == "" {
		return ""
	}
	if strings.HasPrefix(next, c.baseURL) {
		return strings.TrimPrefix(next, c.baseURL)
	}
	if u, err := url.Parse(next); err == nil && u.IsAbs() {
		path := strings.TrimPrefix(u.Path, "/v1")
		if u.RawQuery != "" {
			path += "?" + u.RawQuery
		}
		return path
	}
	return next
}

package player

import (
	"context"

	"github.com/tessro/turntable/internal/core"
	"github.com/tessro/turntable/internal/spotify/client"
)

// topTracksRange is the window the original front end ranks top artists over.
const topTracksRange = "medium_term"

// Search returns tracks matching query.
func (p *Player) Search(ctx context.Context, query string, limit int) ([]core.Track, error) {
	resp, err := p.client.Search(ctx, client.SearchOptions{
		Query:  query,
		Types:  []client.SearchType{client.SearchTypeTrack},
		Limit:  limit,
		Market: p.market,
	})
	if err != nil {
		return nil, err
	}
	if resp.Tracks == nil {
		return nil, nil
	}

	tracks := make([]core.Track, 0, len(resp.Tracks.Items))
	for i := range resp.Tracks.Items {
		tracks = append(tracks, FromSearchTrack(&resp.Tracks.Items[i]))
	}
	return tracks, nil
}

// SearchAlbums returns albums matching query.
func (p *Player) SearchAlbums(ctx context.Context, query string, limit int) ([]core.AlbumSummary, error) {
	resp, err := p.client.Search(ctx, client.SearchOptions{
		Query:  query,
		Types:  []client.SearchType{client.SearchTypeAlbum},
		Limit:  limit,
		Market: p.market,
	})
	if err != nil {
		return nil, err
	}
	if resp.Albums == nil {
		return nil, nil
	}

	albums := make([]core.AlbumSummary, 0, len(resp.Albums.Items))
	for _, a := range resp.Albums.Items {
		names := make([]string, len(a.Artists))
		for i, artist := range a.Artists {
			names[i] = artist.Name
		}
		albums = append(albums, core.AlbumSummary{
			ID:          a.ID,
			Name:        a.Name,
			Artists:     core.ArtistsFromNames(names...),
			ReleaseDate: a.ReleaseDate,
			TotalTracks: a.TotalTracks,
		})
	}
	return albums, nil
}

// TopTracks returns the user's most played tracks with artist references.
func (p *Player) TopTracks(ctx context.Context, limit int) ([]core.RankedTrack, error) {
	items, err := p.client.GetTopTracks(ctx, limit, topTracksRange)
	if err != nil {
		return nil, err
	}

	ranked := make([]core.RankedTrack, 0, len(items))
	for i := range items {
		ranked = append(ranked, core.RankedTrack{
			Track:   FromTopTrack(&items[i]),
			Artists: artistRefs(items[i].Artists),
		})
	}
	return ranked, nil
}

// ArtistTopTracks returns an artist's most popular tracks.
func (p *Player) ArtistTopTracks(ctx context.Context, artistID string) ([]core.Track, error) {
	items, err := p.client.GetArtistTopTracks(ctx, artistID, p.market)
	if err != nil {
		return nil, err
	}

	tracks := make([]core.Track, 0, len(items))
	for i := range items {
		tracks = append(tracks, FromTopTrack(&items[i]))
	}
	return tracks, nil
}

// Playlists returns the user's playlists.
func (p *Player) Playlists(ctx context.Context) ([]core.Playlist, error) {
	items, err := p.client.GetMyPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	playlists := make([]core.Playlist, len(items))
	for i, pl := range items {
		playlists[i] = core.Playlist{ID: pl.ID, Name: pl.Name}
	}
	return playlists, nil
}

// PlaylistTrackURIs returns the URIs of every track in a playlist.
func (p *Player) PlaylistTrackURIs(ctx context.Context, playlistID string) ([]string, error) {
	items, err := p.client.GetPlaylistItems(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	uris := make([]string, 0, len(items))
	for i := range items {
		if t, ok := FromPlaylistItem(&items[i]); ok {
			uris = append(uris, t.URI)
		}
	}
	return uris, nil
}

// AddToPlaylist appends uris to a playlist.
func (p *Player) AddToPlaylist(ctx context.Context, playlistID string, uris ...string) error {
	return p.client.AddPlaylistItems(ctx, playlistID, uris)
}

func artistRefs(artists []client.Artist) []core.ArtistRef {
	refs := make([]core.ArtistRef, 0, len(artists))
	for _, a := range artists {
		if a.ID == "" {
			continue
		}
		refs = append(refs, core.ArtistRef{ID: a.ID, Name: a.Name})
	}
	return refs
}

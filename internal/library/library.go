// Package library serves the browse surfaces around playback: liked picks,
// top artists, search and playlists.
package library

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tessro/turntable/internal/core"
	tterrors "github.com/tessro/turntable/internal/errors"
)

const (
	// DefaultLikedPicks is how many liked tracks LikedPicks returns.
	DefaultLikedPicks = 4

	// DefaultTopArtists is how many artists TopArtists ranks.
	DefaultTopArtists = 3

	// DefaultSearchLimit caps search results.
	DefaultSearchLimit = 10

	topTracksLimit     = 50
	artistFetchWorkers = 4
)

// ArtistTracks is one ranked artist with its popular tracks.
type ArtistTracks struct {
	Artist core.ArtistRef `json:"artist"`
	Count  int            `json:"count"`
	Tracks []core.Track   `json:"tracks"`
}

// Library combines the catalog and the history store.
type Library struct {
	catalog core.Catalog
	store   core.HistoryStore
	logger  zerolog.Logger
	shuffle func(n int, swap func(i, j int))
}

// New creates a Library.
func New(catalog core.Catalog, store core.HistoryStore, logger zerolog.Logger) *Library {
	return &Library{
		catalog: catalog,
		store:   store,
		logger:  logger.With().Str("component", "library").Logger(),
		shuffle: rand.Shuffle,
	}
}

// LikedPicks returns up to n randomly chosen liked tracks for the user.
func (l *Library) LikedPicks(ctx context.Context, userID string, n int) ([]core.Track, error) {
	if userID == "" {
		return nil, tterrors.ErrNoUserIdentity
	}
	if n <= 0 {
		n = DefaultLikedPicks
	}

	rows, err := l.store.LikedHistory(ctx, userID)
	if err != nil {
		return nil, tterrors.Wrap(tterrors.ErrPersistenceFailed, err)
	}

	tracks := make([]core.Track, len(rows))
	for i, row := range rows {
		tracks[i] = *row.Track.Clone()
		tracks[i].Liked = true
	}

	l.shuffle(len(tracks), func(i, j int) {
		tracks[i], tracks[j] = tracks[j], tracks[i]
	})

	if len(tracks) > n {
		tracks = tracks[:n]
	}
	return tracks, nil
}

// TopArtists ranks the artists appearing in the user's top tracks by how
// often they appear, ties going to whoever appeared first, and attaches each
// artist's popular tracks. An artist whose tracks cannot be fetched gets an
// empty list.
func (l *Library) TopArtists(ctx context.Context, n int) ([]ArtistTracks, error) {
	if n <= 0 {
		n = DefaultTopArtists
	}

	ranked, err := l.catalog.TopTracks(ctx, topTracksLimit)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		partial tterrors.PartialResult[[]ArtistTracks]
	)
	partial.Data = rankArtists(ranked, n)

	var g errgroup.Group
	g.SetLimit(artistFetchWorkers)
	for i := range partial.Data {
		artist := partial.Data[i].Artist
		g.Go(func() error {
			tracks, err := l.catalog.ArtistTopTracks(ctx, artist.ID)
			if err != nil {
				mu.Lock()
				partial.AddError(fmt.Errorf("%s: %w", artist.Name, err))
				mu.Unlock()
				tracks = []core.Track{}
			}
			partial.Data[i].Tracks = tracks
			return nil
		})
	}
	// Goroutines never fail the group: a failed artist keeps an empty list
	// and its error lands in partial.
	_ = g.Wait()

	if partial.HasErrors() {
		l.logger.Warn().Err(partial.Err()).Int("failed", len(partial.Errors)).Msg("artist top tracks fetch failed")
	}
	return partial.Data, nil
}

func rankArtists(ranked []core.RankedTrack, n int) []ArtistTracks {
	var order []ArtistTracks
	index := map[string]int{}
	for _, rt := range ranked {
		for _, a := range rt.Artists {
			if i, ok := index[a.ID]; ok {
				order[i].Count++
				continue
			}
			index[a.ID] = len(order)
			order = append(order, ArtistTracks{Artist: a, Count: 1})
		}
	}

	slices.SortStableFunc(order, func(a, b ArtistTracks) int {
		return b.Count - a.Count
	})

	if len(order) > n {
		order = order[:n]
	}
	return order
}

// AddToPlaylist appends track to a playlist unless it is already there.
func (l *Library) AddToPlaylist(ctx context.Context, playlistID string, track core.Track) error {
	if playlistID == "" {
		return errors.New("playlist id is required")
	}
	if track.URI == "" {
		return tterrors.Wrap(tterrors.ErrInvalidTrack, errors.New("track uri is required"))
	}

	uris, err := l.catalog.PlaylistTrackURIs(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("failed to read playlist: %w", err)
	}
	if slices.Contains(uris, track.URI) {
		return tterrors.ErrAlreadyInPlaylist
	}

	if err := l.catalog.AddToPlaylist(ctx, playlistID, track.URI); err != nil {
		return fmt.Errorf("failed to add to playlist: %w", err)
	}
	l.logger.Debug().Str("playlist", playlistID).Str("track", track.ID).Msg("added to playlist")
	return nil
}

// Search returns tracks matching query. A blank query returns nothing.
func (l *Library) Search(ctx context.Context, query string, limit int) ([]core.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return l.catalog.Search(ctx, query, limit)
}

// SearchAlbums returns albums matching query. A blank query returns nothing.
func (l *Library) SearchAlbums(ctx context.Context, query string, limit int) ([]core.AlbumSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return l.catalog.SearchAlbums(ctx, query, limit)
}

// Playlists returns the user's playlists.
func (l *Library) Playlists(ctx context.Context) ([]core.Playlist, error) {
	return l.catalog.Playlists(ctx)
}

// FindPlaylist resolves a playlist by id or case-insensitive name.
func (l *Library) FindPlaylist(ctx context.Context, ref string) (core.Playlist, error) {
	playlists, err := l.catalog.Playlists(ctx)
	if err != nil {
		return core.Playlist{}, err
	}
	for _, p := range playlists {
		if p.ID == ref {
			return p, nil
		}
	}
	for _, p := range playlists {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return core.Playlist{}, fmt.Errorf("playlist %q not found", ref)
}

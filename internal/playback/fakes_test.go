package playback

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/turntable/internal/core"
	"github.com/tessro/turntable/internal/session"
)

type fakePlayer struct {
	mu sync.Mutex

	devices   []core.Device
	listErr   error
	playErr   error
	pauseErr  error
	seekErr   error
	volumeErr error
	snapshot  *core.PlaybackState
	albums    map[string][]core.Track
	listCalls int
	plays     []core.PlayRequest
	pauses    int
	seeks     []int
	volumes   []int

	// gates holds Play calls for a URI until the channel is closed.
	gates   map[string]chan struct{}
	entered chan string
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		devices: []core.Device{{ID: "dev-1", Name: "Desk", Type: core.DeviceTypeComputer, IsActive: true}},
		albums:  map[string][]core.Track{},
		gates:   map[string]chan struct{}{},
	}
}

func (p *fakePlayer) ListDevices(ctx context.Context) ([]core.Device, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listCalls++
	if p.listErr != nil {
		return nil, p.listErr
	}
	return append([]core.Device(nil), p.devices...), nil
}

func (p *fakePlayer) Play(ctx context.Context, deviceID string, req core.PlayRequest) error {
	p.mu.Lock()
	var gate chan struct{}
	if len(req.URIs) > 0 {
		gate = p.gates[req.URIs[0]]
	}
	entered := p.entered
	p.mu.Unlock()

	if gate != nil {
		if entered != nil {
			entered <- req.URIs[0]
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playErr != nil {
		return p.playErr
	}
	p.plays = append(p.plays, req)
	return nil
}

func (p *fakePlayer) Pause(ctx context.Context, deviceID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pauseErr != nil {
		return p.pauseErr
	}
	p.pauses++
	return nil
}

func (p *fakePlayer) Seek(ctx context.Context, positionMs int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seekErr != nil {
		return p.seekErr
	}
	p.seeks = append(p.seeks, positionMs)
	return nil
}

func (p *fakePlayer) SetVolume(ctx context.Context, percent int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.volumeErr != nil {
		return p.volumeErr
	}
	p.volumes = append(p.volumes, percent)
	return nil
}

func (p *fakePlayer) CurrentPlayback(ctx context.Context) (*core.PlaybackState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot, nil
}

func (p *fakePlayer) AlbumTracks(ctx context.Context, albumID string) ([]core.Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tracks, ok := p.albums[albumID]
	if !ok {
		return nil, errors.New("album not found")
	}
	return tracks, nil
}

func (p *fakePlayer) playCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.plays)
}

func (p *fakePlayer) lastPlay() core.PlayRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.plays) == 0 {
		return core.PlayRequest{}
	}
	return p.plays[len(p.plays)-1]
}

type fakeStore struct {
	mu sync.Mutex

	rows map[string]core.HistoryRow

	upserts     []core.HistoryRow
	batches     [][]core.HistoryRow
	deletes     []string
	likeUpdates int
	queryCalls  int
	queryErr    error
	likeErr     error
	deleteErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]core.HistoryRow{}}
}

func key(userID, trackID string) string { return userID + "/" + trackID }

func (s *fakeStore) UpsertHistory(ctx context.Context, row core.HistoryRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts = append(s.upserts, row)
	s.rows[key(row.UserID, row.Track.ID)] = row
	return nil
}

func (s *fakeStore) UpsertHistoryBatch(ctx context.Context, rows []core.HistoryRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, rows)
	for _, row := range rows {
		s.rows[key(row.UserID, row.Track.ID)] = row
	}
	return nil
}

func (s *fakeStore) DeleteHistory(ctx context.Context, userID, trackID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, trackID)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.rows, key(userID, trackID))
	return nil
}

func (s *fakeStore) QueryHistory(ctx context.Context, userID string, limit int) ([]core.HistoryRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryCalls++
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var out []core.HistoryRow
	for _, row := range s.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	sortRowsNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) UpdateLiked(ctx context.Context, row core.HistoryRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.likeUpdates++
	if s.likeErr != nil {
		return s.likeErr
	}
	k := key(row.UserID, row.Track.ID)
	if stored, ok := s.rows[k]; ok {
		stored.Liked = row.Liked
		row = stored
	}
	s.rows[k] = row
	return nil
}

func (s *fakeStore) LikedHistory(ctx context.Context, userID string) ([]core.HistoryRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.HistoryRow
	for _, row := range s.rows {
		if row.UserID == userID && row.Liked {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *fakeStore) seed(userID string, tracks ...core.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, t := range tracks {
		s.rows[key(userID, t.ID)] = core.HistoryRow{
			UserID:   userID,
			Track:    t,
			PlayedAt: base.Add(-time.Duration(i) * time.Minute),
			Liked:    t.Liked,
		}
	}
}

func sortRowsNewestFirst(rows []core.HistoryRow) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].PlayedAt.After(rows[j-1].PlayedAt); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

func track(id string) core.Track {
	return core.Track{
		ID:         id,
		Name:       "Track " + id,
		Artists:    core.ArtistsFromNames("Artist " + id),
		URI:        "spotify:track:" + id,
		DurationMs: 180000,
	}
}

var signedIn = session.Static{AccessToken: "token", UserID: "user-1"}

func newTestController(player *fakePlayer, store *fakeStore, creds session.Provider) *Controller {
	clock := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	return New(Options{
		Player:        player,
		Store:         store,
		Session:       creds,
		Logger:        zerolog.Nop(),
		RemoteTimeout: time.Second,
		AlbumSettle:   -1,
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		},
	})
}

func ids(tracks []core.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

// Package playback keeps the local session (current track, play/pause and
// the play history) consistent with the user's remote playback device.
package playback

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/turntable/internal/core"
	tterrors "github.com/tessro/turntable/internal/errors"
	"github.com/tessro/turntable/internal/history"
	"github.com/tessro/turntable/internal/session"
)

const (
	// DefaultRemoteTimeout bounds each remote call and each history write.
	DefaultRemoteTimeout = 10 * time.Second

	// DefaultAlbumSettle is how long to wait after starting an album before
	// asking for its tracks.
	DefaultAlbumSettle = time.Second
)

// Options configures a Controller.
type Options struct {
	Player  core.RemotePlayer
	Store   core.HistoryStore
	Session session.Provider
	Logger  zerolog.Logger

	RemoteTimeout time.Duration
	// AlbumSettle of zero means DefaultAlbumSettle; negative disables it.
	AlbumSettle  time.Duration
	HistoryLimit int

	// Intn picks shuffle targets; defaults to math/rand/v2.IntN.
	Intn func(n int) int
	// Now stamps history entries; defaults to time.Now.
	Now func() time.Time
}

// Snapshot is a copy of the controller's state.
type Snapshot struct {
	Current   *core.Track  `json:"current"`
	IsPlaying bool         `json:"is_playing"`
	State     core.State   `json:"-"`
	History   []core.Track `json:"history"`
}

// Controller is the playback session. It is safe for concurrent use.
// Remote calls run without the lock; the ledger is only touched under it.
type Controller struct {
	player  core.RemotePlayer
	store   core.HistoryStore
	session session.Provider
	logger  zerolog.Logger
	timeout time.Duration
	settle  time.Duration
	intn    func(int) int

	mu        sync.Mutex
	ledger    *history.Ledger
	current   *core.Track
	isPlaying bool

	fence   fence
	pending sync.WaitGroup
}

// New creates a controller in the Idle state with an empty ledger.
func New(opts Options) *Controller {
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = DefaultRemoteTimeout
	}
	if opts.AlbumSettle == 0 {
		opts.AlbumSettle = DefaultAlbumSettle
	}
	if opts.Intn == nil {
		opts.Intn = rand.IntN
	}

	ledger := history.New(opts.HistoryLimit)
	if opts.Now != nil {
		ledger.SetClock(opts.Now)
	}

	return &Controller{
		player:  opts.Player,
		store:   opts.Store,
		session: opts.Session,
		logger:  opts.Logger.With().Str("component", "playback").Logger(),
		timeout: opts.RemoteTimeout,
		settle:  opts.AlbumSettle,
		intn:    opts.Intn,
		ledger:  ledger,
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Current:   c.current.Clone(),
		IsPlaying: c.isPlaying,
		State:     core.StateOf(c.current, c.isPlaying),
		History:   c.ledger.Tracks(),
	}
}

// PlayTrack starts track on the first available device. When navigation is
// false the play is recorded in the history.
func (c *Controller) PlayTrack(ctx context.Context, track core.Track, navigation bool) error {
	if err := track.Validate(); err != nil {
		return tterrors.Wrap(tterrors.ErrInvalidTrack, err)
	}
	creds, err := c.credentials(ctx)
	if err != nil {
		return err
	}

	tok := c.fence.issue()
	device, err := c.firstDevice(ctx)
	if err != nil {
		return err
	}

	err = c.remote(ctx, func(ctx context.Context) error {
		return c.player.Play(ctx, device.ID, core.PlayRequest{URIs: []string{track.URI}})
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("track", track.ID).Msg("play failed")
		return err
	}

	c.mu.Lock()
	if !c.fence.commit(tok) {
		c.mu.Unlock()
		return tterrors.ErrSuperseded
	}
	if prior, ok := c.ledger.Get(track.ID); ok {
		track.Liked = prior.Liked
	}
	if navigation {
		c.current = track.Clone()
	} else {
		recorded := c.ledger.Record(track)
		c.current = recorded.Clone()
	}
	c.isPlaying = true
	playing := *c.current
	c.mu.Unlock()

	c.logger.Debug().Str("track", track.ID).Bool("navigation", navigation).Msg("playing")

	if !navigation {
		c.recordPlay(ctx, creds, playing)
	}
	return nil
}

// TogglePlayPause pauses when playing and resumes otherwise. IsPlaying flips
// only after the remote command succeeds.
func (c *Controller) TogglePlayPause(ctx context.Context) error {
	if _, err := c.credentials(ctx); err != nil {
		return err
	}

	tok := c.fence.issue()
	c.mu.Lock()
	wasPlaying := c.isPlaying
	c.mu.Unlock()

	if wasPlaying {
		err := c.remote(ctx, func(ctx context.Context) error {
			return c.player.Pause(ctx, "")
		})
		if err != nil {
			c.logger.Warn().Err(err).Msg("pause failed")
			return err
		}
	} else {
		device, err := c.firstDevice(ctx)
		if err != nil {
			return err
		}
		err = c.remote(ctx, func(ctx context.Context) error {
			return c.player.Play(ctx, device.ID, core.PlayRequest{})
		})
		if err != nil {
			c.logger.Warn().Err(err).Msg("resume failed")
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.fence.commit(tok) {
		return tterrors.ErrSuperseded
	}
	c.isPlaying = !wasPlaying
	return nil
}

// Next plays the neighbour that was played more recently than the current
// track. At the newest end, or when the current track is not in the
// history, it does nothing.
func (c *Controller) Next(ctx context.Context) error {
	return c.step(ctx, -1)
}

// Prev plays the neighbour that was played before the current track.
// At the oldest end, or when the current track is not in the history, it
// does nothing.
func (c *Controller) Prev(ctx context.Context) error {
	return c.step(ctx, 1)
}

func (c *Controller) step(ctx context.Context, delta int) error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return nil
	}
	idx := c.ledger.IndexOf(c.current.ID)
	if idx < 0 {
		c.mu.Unlock()
		c.logger.Debug().Msg("current track not in history, nothing to step to")
		return nil
	}
	target, ok := c.ledger.At(idx + delta)
	c.mu.Unlock()

	if !ok {
		return nil
	}
	return c.PlayTrack(ctx, target, true)
}

// Shuffle plays a random history entry, avoiding the current track when
// there is any other choice. The play is recorded.
func (c *Controller) Shuffle(ctx context.Context) error {
	c.mu.Lock()
	entries := c.ledger.Tracks()
	var currentID string
	if c.current != nil {
		currentID = c.current.ID
	}
	c.mu.Unlock()

	if len(entries) == 0 {
		return nil
	}

	candidates := make([]core.Track, 0, len(entries))
	for _, e := range entries {
		if e.ID != currentID {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		candidates = entries
	}

	return c.PlayTrack(ctx, candidates[c.intn(len(candidates))], false)
}

// Repeat replays the current track and records it.
func (c *Controller) Repeat(ctx context.Context) error {
	c.mu.Lock()
	current := c.current.Clone()
	c.mu.Unlock()

	if current == nil {
		return nil
	}
	return c.PlayTrack(ctx, *current, false)
}

// PlayAlbum starts an album on the first device, then records its tracks as
// a batch, first track newest, and makes the first track current.
func (c *Controller) PlayAlbum(ctx context.Context, albumID string) error {
	if albumID == "" {
		return tterrors.Wrap(tterrors.ErrInvalidTrack, errors.New("album id is required"))
	}
	creds, err := c.credentials(ctx)
	if err != nil {
		return err
	}

	tok := c.fence.issue()
	device, err := c.firstDevice(ctx)
	if err != nil {
		return err
	}

	err = c.remote(ctx, func(ctx context.Context) error {
		return c.player.Play(ctx, device.ID, core.PlayRequest{ContextURI: AlbumURI(albumID)})
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("album", albumID).Msg("album play failed")
		return err
	}

	if err := sleep(ctx, c.settle); err != nil {
		return err
	}

	var fetched []core.Track
	err = c.remote(ctx, func(ctx context.Context) error {
		var err error
		fetched, err = c.player.AlbumTracks(ctx, albumID)
		return err
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("album", albumID).Msg("album tracks fetch failed")
		return err
	}

	tracks := make([]core.Track, 0, len(fetched))
	for _, t := range fetched {
		if err := t.Validate(); err != nil {
			c.logger.Debug().Err(err).Str("track", t.ID).Msg("skipping album track")
			continue
		}
		tracks = append(tracks, t)
	}
	if len(tracks) == 0 {
		return tterrors.Wrap(tterrors.ErrRemoteCommandFailed, fmt.Errorf("album %s has no playable tracks", albumID))
	}

	c.mu.Lock()
	if !c.fence.commit(tok) {
		c.mu.Unlock()
		return tterrors.ErrSuperseded
	}
	for i := range tracks {
		if prior, ok := c.ledger.Get(tracks[i].ID); ok {
			tracks[i].Liked = prior.Liked
		}
	}
	batch := c.ledger.RecordBatch(tracks)
	c.current = batch[0].Clone()
	c.isPlaying = true
	c.mu.Unlock()

	c.logger.Debug().Str("album", albumID).Int("tracks", len(batch)).Msg("playing album")

	if !creds.HasIdentity() {
		c.logger.Debug().Msg("no user identity, album not persisted")
		return nil
	}
	rows := make([]core.HistoryRow, len(batch))
	for i, t := range batch {
		rows[i] = historyRow(creds.UserID, t)
	}
	c.persist(ctx, "upsert album", func(ctx context.Context) error {
		return c.store.UpsertHistoryBatch(ctx, rows)
	})
	return nil
}

// ToggleLike flips the liked flag of the current track. The store is
// written first; local state changes only once that succeeds.
func (c *Controller) ToggleLike(ctx context.Context) error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return tterrors.ErrNoCurrentTrack
	}
	track := *c.current.Clone()
	trackID := track.ID
	liked := !track.Liked
	c.mu.Unlock()

	creds, err := c.session.Current(ctx)
	if err != nil {
		return tterrors.Wrap(tterrors.ErrNotAuthenticated, err)
	}
	if !creds.HasIdentity() {
		return tterrors.ErrNoUserIdentity
	}

	storeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	row := historyRow(creds.UserID, track)
	row.Liked = liked
	if err := c.store.UpdateLiked(storeCtx, row); err != nil {
		err = tterrors.Wrap(tterrors.ErrPersistenceFailed, err)
		c.logger.Warn().Err(err).Str("track", trackID).Msg("like update failed")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.ID == trackID {
		c.current.Liked = liked
	}
	c.ledger.SetLiked(trackID, liked)
	return nil
}

// RemoveFromHistory drops trackID locally and schedules one store delete.
// The local removal stands even if the delete fails.
func (c *Controller) RemoveFromHistory(ctx context.Context, trackID string) error {
	c.mu.Lock()
	c.ledger.Remove(trackID)
	c.mu.Unlock()

	creds, err := c.session.Current(ctx)
	if err != nil || !creds.HasIdentity() {
		c.logger.Debug().Err(err).Str("track", trackID).Msg("no user identity, delete not persisted")
		return nil
	}

	userID := creds.UserID
	c.persist(ctx, "delete history", func(ctx context.Context) error {
		return c.store.DeleteHistory(ctx, userID, trackID)
	})
	return nil
}

// Seek moves playback to positionMs on the active device.
func (c *Controller) Seek(ctx context.Context, positionMs int) error {
	if positionMs < 0 {
		return fmt.Errorf("seek position must not be negative, got %d", positionMs)
	}
	if _, err := c.credentials(ctx); err != nil {
		return err
	}

	err := c.remote(ctx, func(ctx context.Context) error {
		return c.player.Seek(ctx, positionMs)
	})
	if err != nil {
		c.logger.Warn().Err(err).Int("position_ms", positionMs).Msg("seek failed")
	}
	return err
}

// SetVolume sets the active device's volume. percent must be 0..100.
func (c *Controller) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", percent)
	}
	if _, err := c.credentials(ctx); err != nil {
		return err
	}

	err := c.remote(ctx, func(ctx context.Context) error {
		return c.player.SetVolume(ctx, percent)
	})
	if err != nil {
		c.logger.Warn().Err(err).Int("volume", percent).Msg("volume change failed")
	}
	return err
}

// AlbumURI returns the playable context URI for an album id.
func AlbumURI(albumID string) string {
	return "spotify:album:" + albumID
}

func (c *Controller) recordPlay(ctx context.Context, creds session.Credentials, t core.Track) {
	if !creds.HasIdentity() {
		c.logger.Debug().Str("track", t.ID).Msg("no user identity, play not persisted")
		return
	}
	row := historyRow(creds.UserID, t)
	c.persist(ctx, "upsert history", func(ctx context.Context) error {
		return c.store.UpsertHistory(ctx, row)
	})
}

// credentials reads the session and requires a bearer token.
func (c *Controller) credentials(ctx context.Context) (session.Credentials, error) {
	creds, err := c.session.Current(ctx)
	if err != nil {
		return creds, tterrors.Wrap(tterrors.ErrNotAuthenticated, err)
	}
	if !creds.Authenticated() {
		return creds, tterrors.ErrNotAuthenticated
	}
	return creds, nil
}

func (c *Controller) firstDevice(ctx context.Context) (core.Device, error) {
	var devices []core.Device
	err := c.remote(ctx, func(ctx context.Context) error {
		var err error
		devices, err = c.player.ListDevices(ctx)
		return err
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("device lookup failed")
		return core.Device{}, err
	}
	if len(devices) == 0 {
		c.logger.Warn().Msg("no playback device available")
		return core.Device{}, tterrors.ErrNoPlaybackDevice
	}
	return devices[0], nil
}

// remote runs fn under the remote timeout and classifies its error.
func (c *Controller) remote(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := fn(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return tterrors.Wrap(tterrors.ErrRemoteUnavailable, err)
	case errors.Is(err, tterrors.ErrNotAuthenticated),
		errors.Is(err, tterrors.ErrNoPlaybackDevice),
		errors.Is(err, tterrors.ErrRemoteUnavailable),
		errors.Is(err, tterrors.ErrRateLimited),
		errors.Is(err, context.Canceled):
		return err
	default:
		return tterrors.Wrap(tterrors.ErrRemoteCommandFailed, err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

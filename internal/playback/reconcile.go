package playback

import (
	"context"
	"errors"

	"github.com/tessro/turntable/internal/core"
	tterrors "github.com/tessro/turntable/internal/errors"
	"github.com/tessro/turntable/internal/session"
)

// Start loads the stored history and adopts whatever the remote device is
// playing, without recording it. Nothing playing leaves the session Idle.
func (c *Controller) Start(ctx context.Context) error {
	creds, err := c.session.Current(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("session unavailable at start")
		creds = session.Credentials{}
	}

	c.hydrate(ctx, creds)

	if !creds.Authenticated() {
		return nil
	}
	if err := c.Reconcile(ctx); err != nil && !errors.Is(err, tterrors.ErrSuperseded) {
		c.logger.Warn().Err(err).Msg("startup reconciliation failed")
		return err
	}
	return nil
}

// hydrate replaces the ledger with the newest stored rows for the user.
// No identity or a failed query leaves the ledger empty.
func (c *Controller) hydrate(ctx context.Context, creds session.Credentials) {
	if !creds.HasIdentity() {
		c.mu.Lock()
		c.ledger.Replace(nil)
		c.mu.Unlock()
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.mu.Lock()
	limit := c.ledger.Limit()
	c.mu.Unlock()

	rows, err := c.store.QueryHistory(ctx, creds.UserID, limit)
	if err != nil {
		c.logger.Error().Err(tterrors.Wrap(tterrors.ErrPersistenceFailed, err)).Msg("history load failed")
		rows = nil
	}

	tracks := make([]core.Track, 0, len(rows))
	for _, row := range rows {
		tracks = append(tracks, trackFromRow(row))
	}

	c.mu.Lock()
	c.ledger.Replace(tracks)
	c.mu.Unlock()

	c.logger.Debug().Int("entries", len(tracks)).Msg("history loaded")
}

// Reconcile fetches the live snapshot and applies it unless a transport
// command was issued or committed in the meantime.
func (c *Controller) Reconcile(ctx context.Context) error {
	if _, err := c.credentials(ctx); err != nil {
		return err
	}

	tok := c.Observe()
	var state *core.PlaybackState
	err := c.remote(ctx, func(ctx context.Context) error {
		var err error
		state, err = c.player.CurrentPlayback(ctx)
		return err
	})
	if err != nil {
		return err
	}
	return c.ApplySnapshot(tok, state)
}

// Observe returns a token for a snapshot fetch about to start.
func (c *Controller) Observe() uint64 {
	return c.fence.observe()
}

// ApplySnapshot adopts a live snapshot fetched after Observe returned tok.
// It never records history. A nil snapshot or one without a track leaves
// the session unchanged.
func (c *Controller) ApplySnapshot(tok uint64, state *core.PlaybackState) error {
	if !state.HasTrack() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.fence.holds(tok) {
		return tterrors.ErrSuperseded
	}

	track := state.Track.Clone()
	progress := int(state.Progress.Milliseconds())
	track.ProgressMs = &progress
	track.PlayedAt = nil

	if c.current != nil && c.current.ID == track.ID {
		track.Liked = c.current.Liked
		track.PlayedAt = c.current.PlayedAt
	} else if prior, ok := c.ledger.Get(track.ID); ok {
		track.Liked = prior.Liked
		track.PlayedAt = prior.PlayedAt
	}

	c.current = track
	c.isPlaying = state.IsPlaying
	return nil
}

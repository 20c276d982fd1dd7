package playback

import (
	"context"
	"time"

	"github.com/tessro/turntable/internal/core"
	tterrors "github.com/tessro/turntable/internal/errors"
)

// persist runs fn in the background on a context detached from the caller's
// cancellation but bounded by the remote timeout. Failures are logged only;
// the local ledger is never rolled back.
func (c *Controller) persist(ctx context.Context, op string, fn func(ctx context.Context) error) {
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			c.logger.Error().
				Err(tterrors.Wrap(tterrors.ErrPersistenceFailed, err)).
				Str("op", op).
				Msg("history write failed")
		}
	}()
}

// Wait blocks until all scheduled history writes have finished.
func (c *Controller) Wait() {
	c.pending.Wait()
}

func historyRow(userID string, t core.Track) core.HistoryRow {
	row := core.HistoryRow{
		UserID: userID,
		Track:  t,
		Liked:  t.Liked,
	}
	if t.PlayedAt != nil {
		row.PlayedAt = time.UnixMilli(*t.PlayedAt)
	}
	return row
}

func trackFromRow(row core.HistoryRow) core.Track {
	t := *row.Track.Clone()
	t.Liked = row.Liked
	if !row.PlayedAt.IsZero() {
		playedAt := row.PlayedAt.UnixMilli()
		t.PlayedAt = &playedAt
	}
	return t
}

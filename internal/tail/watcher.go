// Package tail follows the remote player and turns snapshot differences into
// playback events.
package tail

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/turntable/internal/core"
	tterrors "github.com/tessro/turntable/internal/errors"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventTrackChange EventType = iota
	EventTrackComplete
	EventTrackSkip
	EventPause
	EventResume
	EventVolumeChange
	EventDeviceChange
)

// completionThreshold is the share of a track that counts as finished.
const completionThreshold = 0.95

// Event represents a playback state change.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *core.PlaybackState
	Current   *core.PlaybackState
}

// Sink receives every snapshot the watcher fetches. Observe is called before
// each fetch and its token handed back with the snapshot, so the sink can
// drop snapshots that raced with its own commands.
type Sink interface {
	Observe() uint64
	ApplySnapshot(tok uint64, state *core.PlaybackState) error
}

// Watcher polls a player for state changes and emits events.
type Watcher struct {
	player   core.RemotePlayer
	interval time.Duration
	sink     Sink
	logger   zerolog.Logger
	now      func() time.Time
	events   chan Event
	done     chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSink feeds each fetched snapshot to s.
func WithSink(s Sink) Option {
	return func(w *Watcher) {
		w.sink = s
	}
}

// WithLogger sets the watcher's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher creates a new state watcher.
func NewWatcher(player core.RemotePlayer, interval time.Duration, opts ...Option) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	w := &Watcher{
		player:   player,
		interval: interval,
		logger:   zerolog.Nop(),
		now:      time.Now,
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With().Str("component", "tail").Logger()
	return w
}

// Events returns the channel of playback events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins polling for state changes. It blocks until ctx is done or
// Stop is called, and closes the events channel on return.
func (w *Watcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.events)

	prev, err := w.poll(ctx)
	if err != nil {
		w.logger.Debug().Err(err).Msg("initial poll failed")
	} else {
		w.emit(diffStates(nil, prev, w.now()))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
			curr, err := w.poll(ctx)
			if err != nil {
				if tterrors.IsBlocking(err) {
					return err
				}
				w.logger.Debug().Err(err).Msg("poll failed")
				continue
			}

			w.emit(diffStates(prev, curr, w.now()))
			prev = curr
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
}

func (w *Watcher) poll(ctx context.Context) (*core.PlaybackState, error) {
	var tok uint64
	if w.sink != nil {
		tok = w.sink.Observe()
	}

	state, err := w.player.CurrentPlayback(ctx)
	if err != nil {
		return nil, err
	}

	if w.sink != nil {
		if err := w.sink.ApplySnapshot(tok, state); err != nil && !errors.Is(err, tterrors.ErrSuperseded) {
			w.logger.Warn().Err(err).Msg("snapshot not applied")
		}
	}
	return state, nil
}

func (w *Watcher) emit(events []Event) {
	for _, e := range events {
		select {
		case w.events <- e:
		default:
			w.logger.Debug().Str("event", e.Type.String()).Msg("event dropped")
		}
	}
}

// diffStates compares two states and returns detected events.
func diffStates(prev, curr *core.PlaybackState, now time.Time) []Event {
	if curr == nil {
		return nil
	}

	var events []Event

	if prev == nil {
		if curr.HasTrack() {
			events = append(events, Event{
				Type:      EventTrackChange,
				Timestamp: now,
				Current:   curr,
			})
		}
		return events
	}

	if trackChanged(prev, curr) {
		eventType := EventTrackChange
		if prev.HasTrack() {
			if wasCompleted(prev) {
				eventType = EventTrackComplete
			} else {
				eventType = EventTrackSkip
			}
		}

		events = append(events, Event{
			Type:      eventType,
			Timestamp: now,
			Previous:  prev,
			Current:   curr,
		})
	}

	if prev.IsPlaying && !curr.IsPlaying {
		events = append(events, Event{
			Type:      EventPause,
			Timestamp: now,
			Previous:  prev,
			Current:   curr,
		})
	} else if !prev.IsPlaying && curr.IsPlaying {
		events = append(events, Event{
			Type:      EventResume,
			Timestamp: now,
			Previous:  prev,
			Current:   curr,
		})
	}

	if prev.Volume != curr.Volume {
		events = append(events, Event{
			Type:      EventVolumeChange,
			Timestamp: now,
			Previous:  prev,
			Current:   curr,
		})
	}

	if deviceChanged(prev, curr) {
		events = append(events, Event{
			Type:      EventDeviceChange,
			Timestamp: now,
			Previous:  prev,
			Current:   curr,
		})
	}

	return events
}

func trackChanged(prev, curr *core.PlaybackState) bool {
	if prev.Track == nil && curr.Track == nil {
		return false
	}
	if prev.Track == nil || curr.Track == nil {
		return true
	}
	return prev.Track.URI != curr.Track.URI
}

// wasCompleted reports whether the last seen progress was close enough to
// the end. Unknown durations count as skips.
func wasCompleted(state *core.PlaybackState) bool {
	if state.Track == nil || state.Track.DurationMs == 0 {
		return false
	}
	duration := time.Duration(state.Track.DurationMs) * time.Millisecond
	return float64(state.Progress) >= float64(duration)*completionThreshold
}

func deviceChanged(prev, curr *core.PlaybackState) bool {
	if prev.Device == nil && curr.Device == nil {
		return false
	}
	if prev.Device == nil || curr.Device == nil {
		return true
	}
	return prev.Device.ID != curr.Device.ID
}

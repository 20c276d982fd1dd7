package tail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tessro/turntable/internal/core"
	tterrors "github.com/tessro/turntable/internal/errors"
)

func state(uri string, playing bool, progress time.Duration) *core.PlaybackState {
	return &core.PlaybackState{
		Track: &core.Track{
			ID:         uri,
			Name:       "Song " + uri,
			Artists:    core.ArtistsFromNames("Band"),
			URI:        uri,
			DurationMs: 200000,
		},
		Device:    &core.Device{ID: "dev-1", Name: "Desk"},
		IsPlaying: playing,
		Progress:  progress,
		Volume:    50,
	}
}

func types(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestDiffStates(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	volumeUp := state("a", true, time.Second)
	volumeUp.Volume = 80

	otherDevice := state("a", true, time.Second)
	otherDevice.Device = &core.Device{ID: "dev-2", Name: "Phone"}

	tests := []struct {
		name string
		prev *core.PlaybackState
		curr *core.PlaybackState
		want []EventType
	}{
		{"nothing fetched", state("a", true, 0), nil, nil},
		{"first poll", nil, state("a", true, 0), []EventType{EventTrackChange}},
		{"first poll idle", nil, &core.PlaybackState{}, nil},
		{"unchanged", state("a", true, time.Second), state("a", true, 2*time.Second), nil},
		{"completed", state("a", true, 195*time.Second), state("b", true, 0), []EventType{EventTrackComplete}},
		{"skipped", state("a", true, 10*time.Second), state("b", true, 0), []EventType{EventTrackSkip}},
		{"paused", state("a", true, time.Second), state("a", false, time.Second), []EventType{EventPause}},
		{"resumed", state("a", false, time.Second), state("a", true, time.Second), []EventType{EventResume}},
		{"volume", state("a", true, time.Second), volumeUp, []EventType{EventVolumeChange}},
		{"device", state("a", true, time.Second), otherDevice, []EventType{EventDeviceChange}},
		{"skip and pause", state("a", true, time.Second), state("b", false, 0), []EventType{EventTrackSkip, EventPause}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := types(diffStates(tt.prev, tt.curr, now))
			if len(got) != len(tt.want) {
				t.Fatalf("events = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("events[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

type scriptedPlayer struct {
	core.RemotePlayer

	mu     sync.Mutex
	states []*core.PlaybackState
	err    error
}

func (p *scriptedPlayer) CurrentPlayback(ctx context.Context) (*core.PlaybackState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	if len(p.states) == 0 {
		return nil, nil
	}
	s := p.states[0]
	if len(p.states) > 1 {
		p.states = p.states[1:]
	}
	return s, nil
}

type recordingSink struct {
	mu      sync.Mutex
	tok     uint64
	applied []uint64
	states  []*core.PlaybackState
	err     error
}

func (s *recordingSink) Observe() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok++
	return s.tok
}

func (s *recordingSink) ApplySnapshot(tok uint64, state *core.PlaybackState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, tok)
	s.states = append(s.states, state)
	return s.err
}

func TestWatcherEmitsAndFeedsSink(t *testing.T) {
	player := &scriptedPlayer{states: []*core.PlaybackState{
		state("a", true, 0),
		state("a", false, time.Second),
	}}
	sink := &recordingSink{err: tterrors.ErrSuperseded}
	w := NewWatcher(player, 5*time.Millisecond, WithSink(sink))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	var got []EventType
	for e := range w.Events() {
		got = append(got, e.Type)
		if len(got) == 2 {
			w.Stop()
			break
		}
	}
	if err := <-done; err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if got[0] != EventTrackChange || got[1] != EventPause {
		t.Errorf("events = %v, want [track_change pause]", got)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.applied) < 2 {
		t.Fatalf("sink applied %d snapshots, want at least 2", len(sink.applied))
	}
	for i, tok := range sink.applied {
		if tok != uint64(i+1) {
			t.Errorf("applied[%d] token = %d, want %d", i, tok, i+1)
		}
	}
}

func TestWatcherStopsOnBlockingError(t *testing.T) {
	player := &scriptedPlayer{err: tterrors.Wrap(tterrors.ErrNotAuthenticated, errors.New("401"))}
	w := NewWatcher(player, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := w.Start(ctx)
	if !errors.Is(err, tterrors.ErrNotAuthenticated) {
		t.Errorf("Start() error = %v, want ErrNotAuthenticated", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Error("events channel not closed")
	}
}

func TestWatcherKeepsPollingOnTransientError(t *testing.T) {
	player := &scriptedPlayer{err: tterrors.ErrRemoteUnavailable}
	w := NewWatcher(player, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := w.Start(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Start() error = %v, want deadline exceeded", err)
	}
}

package core

import "time"

// State is the controller's view of the transport.
type State int

const (
	StateIdle    State = iota // no current track
	StateLoaded               // current track set, paused
	StatePlaying              // current track set, playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoaded:
		return "loaded"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// StateOf derives the state from a current track and play flag.
func StateOf(current *Track, isPlaying bool) State {
	switch {
	case current == nil:
		return StateIdle
	case isPlaying:
		return StatePlaying
	default:
		return StateLoaded
	}
}

// PlaybackState is a live snapshot reported by the remote player.
type PlaybackState struct {
	Track     *Track        `json:"track"`
	Device    *Device       `json:"device"`
	IsPlaying bool          `json:"is_playing"`
	Progress  time.Duration `json:"progress"`
	Volume    int           `json:"volume"`
}

// HasTrack returns true if there is an active track.
func (s *PlaybackState) HasTrack() bool {
	return s != nil && s.Track != nil
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *PlaybackState) ProgressPercent() float64 {
	if s == nil || s.Track == nil || s.Track.DurationMs == 0 {
		return 0
	}
	total := time.Duration(s.Track.DurationMs) * time.Millisecond
	return float64(s.Progress) / float64(total) * 100
}

// Package session provides the session controller: it orchestrates emotion
// detection, target synthesis, seed selection, candidate fetching, queue
// management and feedback capture.
package session

import (
	"github.com/osa030/mellowmind/internal/domain/emotion"
	"github.com/osa030/mellowmind/internal/domain/track"
)

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // No track playing (queue empty or stopped)
	StatePlaying              // Track is playing
	StatePaused               // Track is paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// CurrentTrack is the track currently recorded as playing, together with
// the audio-feature snapshot captured at play time.
type CurrentTrack struct {
	Track    track.Track
	Features map[string]float64 // nil when unavailable
}

// sessionState is the mutable playback state owned by the controller. All
// access goes through the controller mutex; the background loop is the only
// concurrent mutator.
type sessionState struct {
	emotion emotion.Emotion
	state   State
	current *CurrentTrack
	queue   []track.Track
	index   int // queue position of the current track
}

// Snapshot is a read-only copy of the session state for display.
type Snapshot struct {
	Emotion    emotion.Emotion
	State      State
	Current    *CurrentTrack
	Queue      []track.Track
	QueueIndex int
	Continuous bool
}

package session

import (
	"errors"

	"caffonia/internal/song"
)

// State of a playback session's lifecycle machine.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StatePlaying
	StatePaused
	StateAdvancing
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateAdvancing:
		return "advancing"
	case StateTornDown:
		return "torn down"
	}
	return "unknown"
}

// LoopMode selects what repeats when a track ends.
type LoopMode int

const (
	LoopOff LoopMode = iota
	LoopSong
	LoopQueue
)

func (m LoopMode) String() string {
	switch m {
	case LoopSong:
		return "song"
	case LoopQueue:
		return "queue"
	}
	return "off"
}

// Next cycles off -> song -> queue -> off.
func (m LoopMode) Next() LoopMode {
	switch m {
	case LoopOff:
		return LoopSong
	case LoopSong:
		return LoopQueue
	}
	return LoopOff
}

// ParseLoopMode maps user input to a LoopMode.
func ParseLoopMode(s string) (LoopMode, bool) {
	switch s {
	case "off":
		return LoopOff, true
	case "song":
		return LoopSong, true
	case "queue":
		return LoopQueue, true
	}
	return LoopOff, false
}

// Quality selects the audio format preference for the next stream.
type Quality int

const (
	QualityAuto Quality = iota
	QualityHigh
	QualityLow
)

func (q Quality) String() string {
	switch q {
	case QualityHigh:
		return "high"
	case QualityLow:
		return "low"
	}
	return "auto"
}

// ParseQuality maps user input to a Quality.
func ParseQuality(s string) (Quality, bool) {
	switch s {
	case "auto":
		return QualityAuto, true
	case "high":
		return QualityHigh, true
	case "low":
		return QualityLow, true
	}
	return QualityAuto, false
}

// Mode bundles the playback flags a session honors when advancing.
type Mode struct {
	Loop     LoopMode
	Shuffle  bool
	Autoplay bool
	Quality  Quality
}

var (
	// ErrQueueFull rejects an enqueue on a full pending queue.
	ErrQueueFull = errors.New("queue is full")
	// ErrPreconditionFailed rejects an operation invalid in the current state.
	ErrPreconditionFailed = errors.New("not allowed in current playback state")
	// ErrTornDown rejects operations on a dead session.
	ErrTornDown = errors.New("session torn down")
	// ErrFatalSession marks a session killed by the advance guard or an
	// irrecoverable voice failure.
	ErrFatalSession = errors.New("session failed fatally")
)

// Status is a point-in-time copy of session state for presentation.
type Status struct {
	State   State
	Current *song.Song
	Pending []song.Song
	History []song.Song
	Mode    Mode
	Volume  int
	Mood    string
}

// StatusKind tags the events a session emits for observers.
type StatusKind int

const (
	StatusPlaying StatusKind = iota
	StatusAdded
	StatusPaused
	StatusResumed
	StatusStopped
	StatusFatal
)

// StatusEvent is pushed on the session's status channel; Song is set for
// StatusPlaying and StatusAdded, Err for StatusFatal.
type StatusEvent struct {
	Kind StatusKind
	Song song.Song
	Err  error
}

package player

// State is the controller's transport state.
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StatePlaying
	StatePaused
	StateError
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// NoTrack is the current index when nothing is loaded.
const NoTrack = -1

// dragSession exists only while a pointer drag on the seek bar is active.
type dragSession struct {
	startX     float64
	lastX      float64
	width      float64
	moved      bool
	wasPlaying bool
}

// PlayerState is the controller-owned session state.
type PlayerState struct {
	CurrentTrackIndex int
	IsPlaying         bool
	CurrentFilter     string

	drag *dragSession
}

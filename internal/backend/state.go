package backend

// State is the lifecycle state of the supervisor.
type State int32

const (
	StateStopped State = iota
	StateLoading
	StateReady
	StateStopping
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// canTransition guards the supervisor state machine.
func (s State) canTransition(to State) bool {
	switch s {
	case StateStopped:
		return to == StateLoading
	case StateLoading:
		return to == StateReady || to == StateStopping || to == StateStopped
	case StateReady:
		return to == StateStopping || to == StateStopped
	case StateStopping:
		return to == StateStopped
	default:
		return false
	}
}

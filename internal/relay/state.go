package relay

import "sync/atomic"

// Phase is the stdout state of a session.
type Phase int32

const (
	// PhaseLoading discards stdout until the readiness marker appears.
	PhaseLoading Phase = iota

	// PhaseReady forwards every stdout line.
	PhaseReady
)

// String returns the phase name.
func (p Phase) String() string {
	if p == PhaseReady {
		return "ready"
	}
	return "loading"
}

// LoadState tracks the one-shot load-complete signal.
type LoadState int32

const (
	LoadPending LoadState = iota
	LoadComplete
)

// String returns the load state name.
func (s LoadState) String() string {
	if s == LoadComplete {
		return "complete"
	}
	return "pending"
}

type phaseMachine struct {
	v atomic.Int32
}

func (m *phaseMachine) get() Phase {
	return Phase(m.v.Load())
}

// markReady moves loading to ready. It reports true only for the call that
// performed the transition.
func (m *phaseMachine) markReady() bool {
	return m.v.CompareAndSwap(int32(PhaseLoading), int32(PhaseReady))
}

type loadMachine struct {
	v atomic.Int32
}

func (m *loadMachine) get() LoadState {
	return LoadState(m.v.Load())
}

// markComplete moves pending to complete, reporting true once.
func (m *loadMachine) markComplete() bool {
	return m.v.CompareAndSwap(int32(LoadPending), int32(LoadComplete))
}

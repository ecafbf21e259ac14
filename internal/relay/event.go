package relay

import "time"

// Kind identifies what an Event reports.
type Kind int

const (
	// KindOutput is an assistant line read from stdout after readiness.
	KindOutput Kind = iota

	// KindReady reports that the readiness marker was observed on stdout.
	KindReady

	// KindLoadComplete reports that the model weights finished loading.
	KindLoadComplete

	// KindError is an unclassified stderr line or a process failure.
	KindError

	// KindExited reports that the child process exited.
	KindExited
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindOutput:
		return "output"
	case KindReady:
		return "ready"
	case KindLoadComplete:
		return "load_complete"
	case KindError:
		return "error"
	case KindExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Source identifies where an Event originated.
type Source int

const (
	SourceStdout Source = iota
	SourceStderr
	SourceProcess
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceStdout:
		return "stdout"
	case SourceStderr:
		return "stderr"
	case SourceProcess:
		return "process"
	default:
		return "unknown"
	}
}

// Event is a classified line or lifecycle notification. Events are ephemeral.
type Event struct {
	Kind      Kind
	Source    Source
	Text      string
	Err       error
	SessionID string
	At        time.Time
}

// Publisher receives events. Implementations must be safe for concurrent use.
type Publisher func(Event)

package backend

import (
	"time"

	"github.com/ekisa-team/llamaterm/internal/relay"
)

// BackendProvider is a string identifier for a backend provider.
type BackendProvider string

const (
	BackendProviderLlamaCPP BackendProvider = "llama.cpp"
)

// Dialect describes how to drive one kind of interactive inference binary.
type Dialect interface {
	// Provider returns the dialect identifier.
	Provider() BackendProvider

	// Args returns the command-line arguments for a session.
	Args(modelPath string, gpuLayers int) []string

	// Prompt returns the bytes written to stdin for one user message.
	Prompt(message string) ([]byte, error)

	// Markers returns the console markers the relay watches for.
	Markers() relay.Markers
}

// Launch is the (model, GPU layers) pair a session was started with.
type Launch struct {
	ModelPath string
	GPULayers int
}

// SessionInfo is a read-only view of the running session.
type SessionInfo struct {
	ID        string
	Launch    Launch
	PID       int
	StartedAt time.Time
	Phase     relay.Phase
	Load      relay.LoadState
}

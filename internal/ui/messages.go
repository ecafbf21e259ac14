package ui

import (
	"github.com/ekisa-team/llamaterm/internal/backend"
	"github.com/ekisa-team/llamaterm/internal/model"
	"github.com/ekisa-team/llamaterm/internal/relay"
)

// EventMsg delivers one supervisor event to the program.
type EventMsg struct {
	Event relay.Event
}

// StartedMsg reports the outcome of a Run.
type StartedMsg struct {
	Info backend.SessionInfo
	Err  error
}

// StoppedMsg reports that a Stop request returned.
type StoppedMsg struct{}

// ConfigReloadedMsg refreshes the catalog and the slider bounds after the
// config file changed on disk.
type ConfigReloadedMsg struct {
	Catalog      []model.Entry
	MaxGPULayers int
}

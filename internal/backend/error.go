package backend

import "errors"

// Error definitions for the backend package.
var (
	ErrNotFound          = errors.New("backend not found in registry")
	ErrAlreadyRegistered = errors.New("backend is already registered in the registry")
	ErrNoModel           = errors.New("no model file selected")
	ErrModelNotFound     = errors.New("model file not found")
	ErrBinaryNotFound    = errors.New("backend binary not found")
	ErrAlreadyRunning    = errors.New("program already running")
	ErrNotRunning        = errors.New("program not running")
)

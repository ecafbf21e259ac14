package relay

import "strings"

// Markers are the console substrings used to follow the child's progress.
//
// They match human-readable text printed by the external binary. A release of
// that binary that rewords its console output breaks detection; there is no
// structured channel to fall back on.
type Markers struct {
	// Ready is matched case-sensitively against stdout lines.
	Ready string

	// Loading is matched case-insensitively against stderr lines, which are discarded.
	Loading string

	// Loaded is matched case-insensitively against stderr lines.
	Loaded string
}

// Default marker text printed by llama.cpp's interactive main binary.
const (
	DefaultReadyMarker   = "If you want to submit another line, end your input with"
	DefaultLoadingMarker = "loading"
	DefaultLoadedMarker  = "fully loaded"
)

// DefaultMarkers returns the llama.cpp interactive markers.
func DefaultMarkers() Markers {
	return Markers{
		Ready:   DefaultReadyMarker,
		Loading: DefaultLoadingMarker,
		Loaded:  DefaultLoadedMarker,
	}
}

// withDefaults fills empty markers.
func (m Markers) withDefaults() Markers {
	d := DefaultMarkers()
	if m.Ready == "" {
		m.Ready = d.Ready
	}
	if m.Loading == "" {
		m.Loading = d.Loading
	}
	if m.Loaded == "" {
		m.Loaded = d.Loaded
	}
	return m
}

// Class is the classification of a stderr line.
type Class int

const (
	ClassProgress Class = iota
	ClassLoaded
	ClassBlank
	ClassDiagnostic
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassProgress:
		return "progress"
	case ClassLoaded:
		return "loaded"
	case ClassBlank:
		return "blank"
	default:
		return "diagnostic"
	}
}

// ClassifyStderr classifies a stderr line. The loading marker is checked
// before the loaded marker.
func ClassifyStderr(line string, m Markers) Class {
	m = m.withDefaults()
	lower := strings.ToLower(line)

	switch {
	case strings.Contains(lower, strings.ToLower(m.Loading)):
		return ClassProgress
	case strings.Contains(lower, strings.ToLower(m.Loaded)):
		return ClassLoaded
	case strings.TrimSpace(line) == "":
		return ClassBlank
	default:
		return ClassDiagnostic
	}
}

// IsReadyLine reports whether a stdout line carries the readiness marker.
func IsReadyLine(line string, m Markers) bool {
	return strings.Contains(line, m.withDefaults().Ready)
}

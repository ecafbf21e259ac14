package ui

import (
	"fmt"
	"strings"
)

// slider is an integer range control rendered as a track with ticks.
type slider struct {
	value int
	min   int
	max   int
	tick  int
	width int
}

func newSlider(value, min, max, tick int) slider {
	s := slider{min: min, max: max, tick: tick, width: 40}
	s.Set(value)
	return s
}

// Set clamps v into range.
func (s *slider) Set(v int) {
	switch {
	case v < s.min:
		v = s.min
	case v > s.max:
		v = s.max
	}
	s.value = v
}

// Add moves the value by delta.
func (s *slider) Add(delta int) {
	s.Set(s.value + delta)
}

// SetMax changes the upper bound and clamps the value.
func (s *slider) SetMax(max int) {
	if max < s.min {
		max = s.min
	}
	s.max = max
	s.Set(s.value)
}

func (s slider) Value() int {
	return s.value
}

func (s slider) View() string {
	span := s.max - s.min
	if span <= 0 || s.width <= 0 {
		return fmt.Sprintf("[%d]", s.value)
	}

	pos := (s.value - s.min) * (s.width - 1) / span

	var b strings.Builder
	for i := range s.width {
		switch {
		case i == pos:
			b.WriteRune('●')
		case s.tick > 0 && tickAt(i, s.width, span, s.tick):
			b.WriteRune('┼')
		default:
			b.WriteRune('─')
		}
	}

	return fmt.Sprintf("%s %3d/%d", b.String(), s.value, s.max)
}

// tickAt reports whether column i lies on a tick mark.
func tickAt(i, width, span, tick int) bool {
	for v := 0; v <= span; v += tick {
		if v*(width-1)/span == i {
			return true
		}
	}
	return false
}

package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlider(t *testing.T) {
	s := newSlider(70, 0, 60, 10)
	assert.Equal(t, 60, s.Value())

	s.Add(-65)
	assert.Equal(t, 0, s.Value())

	s.Set(45)
	s.SetMax(30)
	assert.Equal(t, 30, s.Value())

	s.width = 7
	assert.Contains(t, s.View(), "30/30")
	assert.Contains(t, s.View(), "●")
}


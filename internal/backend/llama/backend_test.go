package llama

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/llamaterm/internal/backend"
	"github.com/ekisa-team/llamaterm/internal/relay"
)

var _ backend.Dialect = (*Backend)(nil)

func TestBackend_Args(t *testing.T) {
	b, err := NewBackend(Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"-m", "/models/7B/ggml-model-q4_0.bin",
		"-r", "user:",
		"--interactive-first",
		"--gpu-layers", "32",
	}, b.Args("/models/7B/ggml-model-q4_0.bin", 32))
}

func TestBackend_Prompt(t *testing.T) {
	b, err := NewBackend(Options{})
	require.NoError(t, err)

	got, err := b.Prompt("Tell me a joke")
	require.NoError(t, err)

	assert.Equal(t, "### Instruction: Tell me a joke\n\n### Response:\n\n", string(got))
}

func TestBackend_CustomTemplate(t *testing.T) {
	b, err := NewBackend(Options{
		ReversePrompt:  "User:",
		PromptTemplate: "USER: {{.Message}}\nASSISTANT:",
	})
	require.NoError(t, err)

	got, err := b.Prompt("hi")
	require.NoError(t, err)
	assert.Equal(t, "USER: hi\nASSISTANT:\n", string(got))
	assert.Contains(t, b.Args("m.bin", 0), "User:")
}

func TestBackend_InvalidTemplate(t *testing.T) {
	_, err := NewBackend(Options{PromptTemplate: "{{.Message"})
	assert.Error(t, err)
}

func TestBackend_Markers(t *testing.T) {
	b, err := NewBackend(Options{Markers: relay.Markers{Loaded: "weights ready"}})
	require.NoError(t, err)

	m := b.Markers()
	assert.Equal(t, relay.DefaultReadyMarker, m.Ready)
	assert.Equal(t, relay.DefaultLoadingMarker, m.Loading)
	assert.Equal(t, "weights ready", m.Loaded)
	assert.Equal(t, backend.BackendProviderLlamaCPP, b.Provider())
}

// Package llama drives llama.cpp's interactive main binary.
package llama

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"

	"github.com/ekisa-team/llamaterm/internal/backend"
	"github.com/ekisa-team/llamaterm/internal/relay"
)

const (
	// DefaultReversePrompt hands control back to the user after each answer.
	DefaultReversePrompt = "user:"

	// DefaultPromptTemplate is the Alpaca-style instruction wrapper.
	DefaultPromptTemplate = "### Instruction: {{.Message}}\n\n### Response:\n"
)

// Options tunes the dialect. Zero values select the defaults.
type Options struct {
	ReversePrompt  string
	PromptTemplate string
	Markers        relay.Markers
}

// Backend implements backend.Dialect for llama.cpp's interactive mode.
type Backend struct {
	reversePrompt string
	prompt        *template.Template
	markers       relay.Markers
}

// NewBackend creates a llama.cpp dialect.
func NewBackend(opts Options) (*Backend, error) {
	reverse := opts.ReversePrompt
	if reverse == "" {
		reverse = DefaultReversePrompt
	}

	text := opts.PromptTemplate
	if text == "" {
		text = DefaultPromptTemplate
	}

	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("llama: invalid prompt template: %w", err)
	}

	markers := opts.Markers
	defaults := relay.DefaultMarkers()
	if markers.Ready == "" {
		markers.Ready = defaults.Ready
	}
	if markers.Loading == "" {
		markers.Loading = defaults.Loading
	}
	if markers.Loaded == "" {
		markers.Loaded = defaults.Loaded
	}

	return &Backend{
		reversePrompt: reverse,
		prompt:        tmpl,
		markers:       markers,
	}, nil
}

// Provider returns the backend provider.
func (b *Backend) Provider() backend.BackendProvider {
	return backend.BackendProviderLlamaCPP
}

// Args builds the interactive command line.
func (b *Backend) Args(modelPath string, gpuLayers int) []string {
	return []string{
		"-m", modelPath,
		"-r", b.reversePrompt,
		"--interactive-first",
		"--gpu-layers", strconv.Itoa(gpuLayers),
	}
}

// Prompt wraps message in the instruction template and appends the newline
// that submits it.
func (b *Backend) Prompt(message string) ([]byte, error) {
	var buf bytes.Buffer
	if err := b.prompt.Execute(&buf, struct{ Message string }{Message: message}); err != nil {
		return nil, fmt.Errorf("llama: render prompt: %w", err)
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Markers returns the console markers printed by llama.cpp main.
func (b *Backend) Markers() relay.Markers {
	return b.markers
}

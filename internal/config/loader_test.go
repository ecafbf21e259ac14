package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/llamaterm/internal/envvar"
	"github.com/ekisa-team/llamaterm/internal/relay"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Setenv(envvar.LlamatermBinary, "")
	t.Setenv(envvar.LlamatermGRPCAddr, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultProvider, cfg.Backend.Provider)
	assert.Equal(t, DefaultBinary(), cfg.Backend.Binary)
	assert.Equal(t, DefaultMaxGPULayers, cfg.Session.MaxGPULayers)
	assert.Equal(t, DefaultGRPCAddr, cfg.GRPC.Addr)
	assert.False(t, cfg.GRPC.Enabled)
	assert.Equal(t, relay.DefaultMarkers(), cfg.RelayMarkers())
	assert.Equal(t, DefaultModelExtensions, cfg.Models.Extensions)
}

func TestLoadAndValidate_ParsesFile(t *testing.T) {
	t.Setenv(envvar.LlamatermBinary, "")
	t.Setenv(envvar.LlamatermGRPCAddr, "")

	path := writeConfig(t, `
version: "1"
backend:
  binary: /opt/llama/main
  extra_args: ["--threads", "8"]
session:
  model: ~/models/7B/ggml-model-q4_0.bin
  gpu_layers: 32
models:
  entries:
    vicuna:
      path: /models/vicuna.bin
      description: Vicuna 13B
logging:
  level: debug
grpc:
  enabled: true
`)

	cfg, err := LoadAndValidate(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/llama/main", cfg.Backend.Binary)
	assert.Equal(t, []string{"--threads", "8"}, cfg.Backend.ExtraArgs)
	assert.Equal(t, 32, cfg.Session.GPULayers)
	assert.Equal(t, DefaultMaxGPULayers, cfg.Session.MaxGPULayers)
	assert.Equal(t, "/models/vicuna.bin", cfg.Models.Entries["vicuna"].Path)
	assert.True(t, cfg.GRPC.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultProvider, cfg.Backend.Provider)
}

func TestParse_SchemaRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown top-level key", body: "colour: blue\n"},
		{name: "unknown provider", body: "backend:\n  provider: whisper\n"},
		{name: "negative gpu layers", body: "session:\n  gpu_layers: -1\n"},
		{name: "entry without path", body: "models:\n  entries:\n    x:\n      description: nope\n"},
		{name: "extension without dot", body: "models:\n  extensions: [bin]\n"},
		{name: "bad log level", body: "logging:\n  level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestParse_GPULayersAboveMax(t *testing.T) {
	_, err := Parse([]byte("session:\n  gpu_layers: 80\n  max_gpu_layers: 40\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds max_gpu_layers")
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("backend: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid YAML")
}

func TestLoadAndValidate_EnvOverrides(t *testing.T) {
	t.Setenv(envvar.LlamatermBinary, "/usr/local/bin/llama")
	t.Setenv(envvar.LlamatermGRPCAddr, "127.0.0.1:6000")

	cfg, err := LoadAndValidate(writeConfig(t, "backend:\n  binary: ./main\n"))
	require.NoError(t, err)

	assert.Equal(t, "/usr/local/bin/llama", cfg.Backend.Binary)
	assert.Equal(t, "127.0.0.1:6000", cfg.GRPC.Addr)
	assert.True(t, cfg.GRPC.Enabled)
}

func TestLoad_ReportsInvalidFile(t *testing.T) {
	_, err := Load(writeConfig(t, "session:\n  gpu_layers: many\n"))
	require.Error(t, err)
}

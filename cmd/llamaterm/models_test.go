package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/llamaterm/internal/envvar"
	"github.com/ekisa-team/llamaterm/internal/model"
)

func TestPrintCatalog(t *testing.T) {
	var buf bytes.Buffer
	printCatalog(&buf, "/models", []model.Entry{
		{ID: "7B.bin", Path: "/models/7B.bin", Origin: model.OriginScan, Size: 4 << 30},
	})

	out := buf.String()
	assert.Contains(t, out, "7B.bin")
	assert.Contains(t, out, "4.0 GiB")
	assert.Contains(t, out, "scan")
}

func TestPrintCatalog_Empty(t *testing.T) {
	var buf bytes.Buffer
	printCatalog(&buf, "/models", nil)
	assert.Equal(t, "No models found (models directory: /models)\n", buf.String())
}

func TestConfigValidateCommand(t *testing.T) {
	t.Setenv(envvar.LlamatermBinary, "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  binary: /opt/llama/main\n"), 0o644))

	var out bytes.Buffer
	configValidateCmd.SetOut(&out)
	t.Cleanup(func() { configValidateCmd.SetOut(nil) })

	require.NoError(t, configValidateCmd.RunE(configValidateCmd, []string{path}))
	assert.Contains(t, out.String(), "valid")
	assert.Contains(t, out.String(), "/opt/llama/main")
}

func TestConfigValidateCommand_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bogus: true\n"), 0o644))

	assert.Error(t, configValidateCmd.RunE(configValidateCmd, []string{path}))
}

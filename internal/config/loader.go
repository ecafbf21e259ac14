package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"

	"github.com/ekisa-team/llamaterm/internal/envvar"
	"github.com/ekisa-team/llamaterm/internal/xfs"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "llamaterm.v1.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString(schemaURL, schemaJSON)
	})
	return compiledSchema, schemaErr
}

// Load reads the config at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg, err := LoadAndValidate(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("Config file not found, using defaults", "path", path)
		cfg = Default()
		applyEnv(cfg)
		return cfg, nil
	}

	return cfg, err
}

// LoadAndValidate loads and validates the configuration.
func LoadAndValidate(path string) (*Config, error) {
	data, err := os.ReadFile(xfs.ExpandTilde(path))
	if err != nil {
		return nil, fmt.Errorf("config: failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	applyEnv(cfg)
	return cfg, nil
}

// Parse validates raw YAML against the schema and decodes it with defaults
// applied.
func Parse(data []byte) (*Config, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: invalid YAML: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	s, err := schema()
	if err != nil {
		return nil, fmt.Errorf("config: failed to compile schema: %w", err)
	}

	if err := s.Validate(raw); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal into Config struct: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv applies environment overrides.
func applyEnv(cfg *Config) {
	if v := os.Getenv(envvar.LlamatermBinary); v != "" {
		cfg.Backend.Binary = v
	}

	if v := os.Getenv(envvar.LlamatermGRPCAddr); v != "" {
		cfg.GRPC.Addr = v
		cfg.GRPC.Enabled = true
	}
}

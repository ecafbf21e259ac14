package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config holds the main configuration for the application.
type Config struct {
	Version    string           `json:"version"              yaml:"version"`
	Backend    BackendConfig    `json:"backend"              yaml:"backend"`
	Session    SessionConfig    `json:"session"              yaml:"session"`
	Markers    MarkersConfig    `json:"markers,omitempty"    yaml:"markers,omitempty"`
	Models     ModelsConfig     `json:"models,omitempty"     yaml:"models,omitempty"`
	Logging    LoggingConfig    `json:"logging,omitempty"    yaml:"logging,omitempty"`
	GRPC       GRPCConfig       `json:"grpc,omitempty"       yaml:"grpc,omitempty"`
	Transcript TranscriptConfig `json:"transcript,omitempty" yaml:"transcript,omitempty"`
}

// BackendConfig describes the external inference binary.
type BackendConfig struct {
	Env       map[string]string `json:"env,omitempty"        yaml:"env,omitempty"`
	Provider  string            `json:"provider,omitempty"   yaml:"provider,omitempty"`
	Binary    string            `json:"binary"               yaml:"binary"`
	ExtraArgs []string          `json:"extra_args,omitempty" yaml:"extra_args,omitempty"`
}

// SessionConfig holds the per-session defaults shown in the UI.
type SessionConfig struct {
	Model          string `json:"model,omitempty"           yaml:"model,omitempty"`
	ReversePrompt  string `json:"reverse_prompt,omitempty"  yaml:"reverse_prompt,omitempty"`
	PromptTemplate string `json:"prompt_template,omitempty" yaml:"prompt_template,omitempty"`
	GPULayers      int    `json:"gpu_layers"                yaml:"gpu_layers"`
	MaxGPULayers   int    `json:"max_gpu_layers,omitempty"  yaml:"max_gpu_layers,omitempty"`
}

// MarkersConfig overrides the console markers of the backend binary.
type MarkersConfig struct {
	Ready   string `json:"ready,omitempty"   yaml:"ready,omitempty"`
	Loading string `json:"loading,omitempty" yaml:"loading,omitempty"`
	Loaded  string `json:"loaded,omitempty"  yaml:"loaded,omitempty"`
}

// ModelsConfig lists selectable model files.
type ModelsConfig struct {
	Entries    map[string]ModelEntry `json:"entries,omitempty"    yaml:"entries,omitempty"`
	Dir        string                `json:"dir,omitempty"        yaml:"dir,omitempty"`
	Extensions []string              `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// ModelEntry is a named model file.
type ModelEntry struct {
	Path        string `json:"path"                  yaml:"path"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// LoggingConfig holds configuration for the log file.
type LoggingConfig struct {
	File       string `json:"file,omitempty"        yaml:"file,omitempty"`
	Level      string `json:"level,omitempty"       yaml:"level,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
}

// GRPCConfig holds configuration for the health endpoint.
type GRPCConfig struct {
	Addr    string `json:"addr,omitempty"    yaml:"addr,omitempty"`
	Enabled bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// TranscriptConfig holds configuration for saved transcripts.
type TranscriptConfig struct {
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// SlogLevel maps the configured level name to a slog level.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks constraints the schema cannot express.
func (c *Config) Validate() error {
	if c.Session.MaxGPULayers < 0 {
		return fmt.Errorf("config: max_gpu_layers must not be negative")
	}

	if c.Session.GPULayers > c.Session.MaxGPULayers {
		return fmt.Errorf("config: gpu_layers %d exceeds max_gpu_layers %d", c.Session.GPULayers, c.Session.MaxGPULayers)
	}

	for id, entry := range c.Models.Entries {
		if strings.TrimSpace(entry.Path) == "" {
			return fmt.Errorf("config: model %q has no path", id)
		}
	}

	return nil
}

package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/ekisa-team/llamaterm/internal/relay"
)

const (
	// DefaultProvider is the only dialect shipped with llamaterm.
	DefaultProvider = "llama.cpp"

	// DefaultMaxGPULayers is the upper bound of the GPU layer slider.
	DefaultMaxGPULayers = 60

	// DefaultGRPCAddr is the health endpoint listen address.
	DefaultGRPCAddr = "127.0.0.1:50551"

	defaultLogMaxSizeMB = 10
	defaultVersion      = "1"
)

// DefaultModelExtensions are the file extensions offered by the model picker.
var DefaultModelExtensions = []string{".bin", ".gguf"}

// DefaultConfigPath returns the default path for the llamaterm config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "llamaterm", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "llamaterm")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "llamaterm")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "llamaterm")
		}
		return filepath.Join(home, ".config", "llamaterm")
	}
}

// DefaultModelsPath returns the default path for the models directory.
func DefaultModelsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "llamaterm", "models")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "llamaterm", "models")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "llamaterm", "models")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "llamaterm", "models")
		}
		return filepath.Join(home, ".cache", "llamaterm", "models")
	}
}

// DefaultBinary returns the llama.cpp interactive binary name, resolved on PATH.
func DefaultBinary() string {
	if runtime.GOOS == "windows" {
		return "main.exe"
	}
	return "main"
}

// DefaultLogFile returns the default log file path.
func DefaultLogFile() string {
	return "llamaterm.log"
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}

	if cfg.Backend.Provider == "" {
		cfg.Backend.Provider = DefaultProvider
	}
	if cfg.Backend.Binary == "" {
		cfg.Backend.Binary = DefaultBinary()
	}

	if cfg.Session.MaxGPULayers == 0 {
		cfg.Session.MaxGPULayers = DefaultMaxGPULayers
	}

	markers := relay.DefaultMarkers()
	if cfg.Markers.Ready == "" {
		cfg.Markers.Ready = markers.Ready
	}
	if cfg.Markers.Loading == "" {
		cfg.Markers.Loading = markers.Loading
	}
	if cfg.Markers.Loaded == "" {
		cfg.Markers.Loaded = markers.Loaded
	}

	if len(cfg.Models.Extensions) == 0 {
		cfg.Models.Extensions = append([]string(nil), DefaultModelExtensions...)
	}

	if cfg.Logging.File == "" {
		cfg.Logging.File = DefaultLogFile()
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}

	if cfg.GRPC.Addr == "" {
		cfg.GRPC.Addr = DefaultGRPCAddr
	}

	if cfg.Transcript.Dir == "" {
		cfg.Transcript.Dir = "."
	}
}

// RelayMarkers converts the configured markers.
func (c *Config) RelayMarkers() relay.Markers {
	return relay.Markers{
		Ready:   c.Markers.Ready,
		Loading: c.Markers.Loading,
		Loaded:  c.Markers.Loaded,
	}
}

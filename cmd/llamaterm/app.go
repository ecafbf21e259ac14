package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/llamaterm/internal/backend"
	"github.com/ekisa-team/llamaterm/internal/backend/llama"
	"github.com/ekisa-team/llamaterm/internal/config"
	"github.com/ekisa-team/llamaterm/internal/env"
	"github.com/ekisa-team/llamaterm/internal/logger"
	"github.com/ekisa-team/llamaterm/internal/model"
	"github.com/ekisa-team/llamaterm/internal/xfs"
)

// flags are shared by every command that starts a session.
type flags struct {
	configPath string
	binary     string
	modelPath  string
	grpcAddr   string
	logFile    string
	gpuLayers  int
}

var rootFlags flags

func defaultConfigFile() string {
	return filepath.Join(config.DefaultConfigPath(), "config.yaml")
}

// apply overlays explicitly set flags on cfg.
func (f flags) apply(cmd *cobra.Command, cfg *config.Config) {
	if f.binary != "" {
		cfg.Backend.Binary = f.binary
	}
	if f.modelPath != "" {
		cfg.Session.Model = f.modelPath
	}
	if cmd.Flags().Changed("gpu-layers") {
		cfg.Session.GPULayers = f.gpuLayers
	}
	if f.grpcAddr != "" {
		cfg.GRPC.Addr = f.grpcAddr
		cfg.GRPC.Enabled = true
	}
	if f.logFile != "" {
		cfg.Logging.File = f.logFile
	}
}

// app holds the components shared by the TUI and pipe modes.
type app struct {
	env        env.Environment
	cfg        *config.Config
	catalog    *model.Manager
	dialects   *backend.Registry
	supervisor *backend.Supervisor
}

// newApp loads the configuration, installs the default logger and builds the
// supervisor. A nil console keeps logs off the terminal.
func newApp(cmd *cobra.Command, console io.Writer) (*app, error) {
	environment := env.FromEnv()

	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return nil, err
	}
	rootFlags.apply(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.SetDefault(logger.New(environment,
		logger.WithConsole(console),
		logger.WithLogToFile(true),
		logger.WithLogFile(xfs.ExpandTilde(cfg.Logging.File)),
		logger.WithTruncate(true),
		logger.WithLevel(cfg.Logging.SlogLevel()),
		logger.WithRotation(cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups),
	))

	a := &app{
		env:      environment,
		cfg:      cfg,
		catalog:  model.NewManager(),
		dialects: backend.NewRegistry(),
	}

	if err := a.catalog.LoadFromConfig(cfg); err != nil {
		slog.Error("Failed to load model catalog", "error", err)
	}

	dialect, err := a.dialect(cfg)
	if err != nil {
		return nil, err
	}

	a.supervisor = backend.NewSupervisor(supervisorConfig(cfg), dialect)

	slog.Info("llamaterm initialized",
		"version", version,
		"config", rootFlags.configPath,
		"binary", cfg.Backend.Binary,
		"provider", cfg.Backend.Provider,
	)

	return a, nil
}

// dialect builds the dialect for cfg and stores it in the registry.
func (a *app) dialect(cfg *config.Config) (backend.Dialect, error) {
	switch backend.BackendProvider(cfg.Backend.Provider) {
	case backend.BackendProviderLlamaCPP:
		d, err := llama.NewBackend(llama.Options{
			ReversePrompt:  cfg.Session.ReversePrompt,
			PromptTemplate: cfg.Session.PromptTemplate,
			Markers:        cfg.RelayMarkers(),
		})
		if err != nil {
			return nil, err
		}
		a.dialects.Replace(d)
	}

	d, err := a.dialects.Get(backend.BackendProvider(cfg.Backend.Provider))
	if err != nil {
		return nil, fmt.Errorf("unsupported backend provider: %w", err)
	}
	return d, nil
}

// reload applies a changed configuration to the catalog and the supervisor.
// A running session keeps its settings until the next Run.
func (a *app) reload(cmd *cobra.Command, cfg *config.Config) error {
	rootFlags.apply(cmd, cfg)

	if err := a.catalog.LoadFromConfig(cfg); err != nil {
		return fmt.Errorf("failed to load model catalog: %w", err)
	}

	dialect, err := a.dialect(cfg)
	if err != nil {
		return err
	}

	a.supervisor.Reconfigure(supervisorConfig(cfg), dialect)
	a.cfg = cfg
	return nil
}

func supervisorConfig(cfg *config.Config) backend.SupervisorConfig {
	return backend.SupervisorConfig{
		Env:        cfg.Backend.Env,
		BinaryPath: xfs.ExpandTilde(cfg.Backend.Binary),
		ExtraArgs:  cfg.Backend.ExtraArgs,
	}
}

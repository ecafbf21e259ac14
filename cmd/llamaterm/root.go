package main

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ekisa-team/llamaterm/internal/config"
	"github.com/ekisa-team/llamaterm/internal/logger"
	"github.com/ekisa-team/llamaterm/internal/server"
	"github.com/ekisa-team/llamaterm/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:           "llamaterm",
	Short:         "Terminal front end for llama.cpp",
	Long:          "llamaterm runs a local llama.cpp model as a child process and chats with it from the terminal.",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runTUI,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", defaultConfigFile(), "path to config file")
	pf.StringVar(&rootFlags.binary, "binary", "", "path to the llama.cpp main binary")
	pf.StringVar(&rootFlags.modelPath, "model", "", "model file path or catalog id")
	pf.IntVar(&rootFlags.gpuLayers, "gpu-layers", 0, "number of layers to offload to the GPU")
	pf.StringVar(&rootFlags.grpcAddr, "grpc-addr", "", "serve gRPC health on this address")
	pf.StringVar(&rootFlags.logFile, "log-file", "", "log file path")
}

func runTUI(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, nil)
	if err != nil {
		return err
	}
	defer logger.Recover("tui")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if a.cfg.GRPC.Enabled {
		srv := server.New(a.cfg.GRPC.Addr, a.supervisor)
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("gRPC server stopped", "error", err)
			}
		}()
		defer srv.Stop()
	}

	m := ui.New(a.supervisor, ui.Options{
		Context:       ctx,
		ModelPath:     a.catalog.Resolve(a.cfg.Session.Model),
		GPULayers:     a.cfg.Session.GPULayers,
		MaxGPULayers:  a.cfg.Session.MaxGPULayers,
		TranscriptDir: a.cfg.Transcript.Dir,
		Catalog:       a.catalog.Registry().List(),
	})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	watcher, err := config.NewWatcher(rootFlags.configPath, func(cfg *config.Config, err error) {
		if err != nil {
			return
		}
		if err := a.reload(cmd, cfg); err != nil {
			slog.Error("Failed to apply reloaded config", "error", err)
			return
		}
		program.Send(ui.ConfigReloadedMsg{
			Catalog:      a.catalog.Registry().List(),
			MaxGPULayers: cfg.Session.MaxGPULayers,
		})
	})
	if err != nil {
		slog.Warn("Config hot reload disabled", "path", rootFlags.configPath, "error", err)
	} else {
		defer watcher.Close()
	}

	_, runErr := program.Run()

	a.supervisor.Stop()
	slog.Info("llamaterm exited")

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return nil
}


package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/llamaterm/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a config file against the schema",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := rootFlags.configPath
		if len(args) == 1 {
			path = args[0]
		}

		cfg, err := config.LoadAndValidate(path)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (provider %s, binary %s, %d model entries)\n",
			path, cfg.Backend.Provider, cfg.Backend.Binary, len(cfg.Models.Entries))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

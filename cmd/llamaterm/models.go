package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ekisa-team/llamaterm/internal/model"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the model catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd, nil)
		if err != nil {
			return err
		}

		printCatalog(cmd.OutOrStdout(), a.catalog.Dir(), a.catalog.Registry().List())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func printCatalog(w io.Writer, dir string, entries []model.Entry) {
	if len(entries) == 0 {
		fmt.Fprintf(w, "No models found (models directory: %s)\n", dir)
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "SIZE", "ORIGIN", "PATH")

	for _, e := range entries {
		t.Row(e.ID, humanize.IBytes(uint64(e.Size)), string(e.Origin), e.Path)
	}

	fmt.Fprintln(w, t.Render())
}

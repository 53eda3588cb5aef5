package main

import (
	"context"
	"fmt"

	"ucdocs/cmd/ucdocs/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// browseCmd opens the interactive annotation browser
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse indexed annotations interactively",
	Long: `Builds the index and opens a terminal browser over every indexed
annotation: a filterable list beside a rendered view of the covered code.`,
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	e, err := openEnv()
	if err != nil {
		return err
	}

	result, err := e.runScan(ctx)
	if err != nil {
		return err
	}

	idx, _, err := e.buildIndex(ctx, result, true)
	if err != nil {
		return err
	}

	if len(idx.Entries) == 0 {
		fmt.Println("no annotations found")
		return nil
	}

	p := tea.NewProgram(ui.NewBrowseModel(idx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser failed: %w", err)
	}
	return nil
}

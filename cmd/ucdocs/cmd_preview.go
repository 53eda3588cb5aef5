package main

import (
	"context"
	"fmt"
	"path/filepath"

	"ucdocs/internal/render"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

// previewCmd renders one exercise README to the terminal
var previewCmd = &cobra.Command{
	Use:   "preview [exercise-dir]",
	Short: "Render an exercise README in the terminal without writing it",
	Long: `Builds the index and renders the named exercise's README, then
displays it with terminal markdown styling. Nothing is written to disk.

Example:
  ucdocs preview exercises/use-after-free`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
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

	idx, _, err := e.buildIndex(ctx, result, false)
	if err != nil {
		return err
	}

	dir := filepath.ToSlash(filepath.Clean(args[0]))
	outlinePath := filepath.Join(e.root, filepath.FromSlash(dir), e.cfg.Render.OutlineFile)
	outline, err := render.LoadOutline(outlinePath)
	if err != nil {
		return err
	}

	renderer := render.NewRenderer(idx, e.root, e.cfg.Render.TOC)
	content, err := renderer.Render(dir, outline)
	if err != nil {
		return err
	}

	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	out, err := tr.Render(content)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	fmt.Print(out)
	return nil
}

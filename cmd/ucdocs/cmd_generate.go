package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ucdocs/internal/annotation"
	"ucdocs/internal/index"
	"ucdocs/internal/render"
	"ucdocs/internal/scan"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// generateCmd runs the full pipeline: scan, index, render
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Scan the workspace and regenerate every exercise README",
	Long: `Runs the full pipeline: scans the workspace, resolves @unsafe[...]
annotations into code spans, rebuilds the index, and renders a README.md for
every directory holding a readme.yml outline.

Unchanged files are served from the cached index; READMEs whose content did
not change are left untouched.`,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	e, err := openEnv()
	if err != nil {
		return err
	}

	result, idx, problems, err := regenerate(ctx, e)
	if err != nil {
		return err
	}

	for _, p := range problems {
		fmt.Println(warnStyle.Render(fmt.Sprintf("warning: %s:%d: %s", p.File, p.Line, p.Message)))
	}

	generated, err := render.GenerateAll(ctx, e.root, e.cfg, result, idx)
	if err != nil {
		return err
	}

	written := 0
	for _, g := range generated {
		if g.Written {
			written++
			fmt.Println(okStyle.Render("  wrote ") + g.Dir)
		} else {
			fmt.Println(dimStyle.Render("  up to date ") + g.Dir)
		}
	}

	fmt.Printf("%d exercises, %d annotations, %d READMEs written\n",
		len(generated), len(idx.Entries), written)
	return nil
}

// regenerate runs scan plus index build and persists both. Shared with
// watch mode.
func regenerate(ctx context.Context, e *env) (*scan.Result, *index.Index, []annotation.Problem, error) {
	res, err := e.runScan(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	built, probs, err := e.buildIndex(ctx, res, true)
	if err != nil {
		return nil, nil, nil, err
	}

	logger.Info("index rebuilt",
		zap.Int("files", len(built.Files)),
		zap.Int("entries", len(built.Entries)))
	return res, built, probs, nil
}

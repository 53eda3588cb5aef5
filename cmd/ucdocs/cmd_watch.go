package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ucdocs/internal/render"
	"ucdocs/internal/watch"

	"github.com/spf13/cobra"
)

// watchCmd keeps READMEs current while sources change
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the workspace and regenerate READMEs on change",
	Long: `Watches the workspace for changes to annotated sources, readme.yml
outlines, and .http attachments. After changes settle, runs an incremental
regenerate. Runs until interrupted.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e, err := openEnv()
	if err != nil {
		return err
	}

	rebuild := func(ctx context.Context) error {
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
		for _, g := range generated {
			if g.Written {
				fmt.Println(okStyle.Render("  wrote ") + g.Dir)
			}
		}
		return nil
	}

	// Full pass before watching so the tree starts current.
	if err := rebuild(ctx); err != nil {
		return err
	}

	w, err := watch.New(e.root, e.cfg.Render.OutlineFile, e.cfg.Scanner.HiddenAllow, e.cfg.GetWatchDebounce(), rebuild)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Printf("watching %s (ctrl-c to stop)\n", e.root)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case <-ctx.Done():
	}

	stats := w.GetStats()
	fmt.Printf("%d rebuilds, %d errors\n", stats.Rebuilds, stats.Errors)
	return nil
}

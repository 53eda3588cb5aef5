package main

import (
	"context"
	"fmt"

	"ucdocs/internal/annotation"
	"ucdocs/internal/config"
	"ucdocs/internal/index"
	"ucdocs/internal/scan"

	"go.uber.org/zap"
)

// env bundles the resolved workspace and its configuration for one command.
type env struct {
	root string
	cfg  *config.Config
}

// openEnv resolves the workspace and loads its config.
func openEnv() (*env, error) {
	ws, err := resolveWorkspace()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(config.Path(ws))
	if err != nil {
		return nil, err
	}
	return &env{root: ws, cfg: cfg}, nil
}

// runScan walks the workspace and refreshes the file cache.
func (e *env) runScan(ctx context.Context) (*scan.Result, error) {
	scanner := scan.NewScanner(e.root, e.cfg.Scanner)
	result, err := scanner.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	logger.Debug("scan complete",
		zap.Int("files", result.FileCount),
		zap.Int("dirs", result.DirectoryCount))
	return result, nil
}

// buildIndex builds the annotation index from a scan result, reusing the
// previous index for unchanged files. persist controls whether index.yml is
// written back; the check command keeps the workspace untouched.
func (e *env) buildIndex(ctx context.Context, result *scan.Result, persist bool) (*index.Index, []annotation.Problem, error) {
	path := index.DefaultPath(e.root)
	prev := index.Load(path)

	builder := index.NewBuilder()
	defer builder.Close()

	idx, problems, err := builder.Build(ctx, result, prev)
	if err != nil {
		return nil, nil, fmt.Errorf("index build failed: %w", err)
	}

	if persist {
		if err := idx.Save(path); err != nil {
			return nil, nil, fmt.Errorf("failed to save index: %w", err)
		}
	}
	return idx, problems, nil
}

package render

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"ucdocs/internal/config"
	"ucdocs/internal/index"
	"ucdocs/internal/logging"
	"ucdocs/internal/scan"

	"golang.org/x/sync/errgroup"
)

// Generated records the outcome for one exercise directory.
type Generated struct {
	Dir     string // exercise dir relative to the workspace
	Output  string // absolute path of the README
	Written bool   // false when the existing README was already up to date
}

// FindOutlines returns the exercise directories (relative to the workspace)
// that contain an outline file, in sorted order.
func FindOutlines(res *scan.Result, outlineFile string) []string {
	var dirs []string
	for _, f := range res.Files {
		if path.Base(f.Path) == outlineFile {
			dirs = append(dirs, path.Dir(f.Path))
		}
	}
	sort.Strings(dirs)
	return dirs
}

// GenerateAll renders every exercise README in the workspace. Unchanged
// READMEs are left untouched so a no-change regenerate is a no-op.
func GenerateAll(ctx context.Context, workspace string, cfg *config.Config, res *scan.Result, idx *index.Index) ([]Generated, error) {
	dirs := FindOutlines(res, cfg.Render.OutlineFile)
	renderer := NewRenderer(idx, workspace, cfg.Render.TOC)

	results := make([]Generated, len(dirs))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			outlinePath := filepath.Join(workspace, filepath.FromSlash(dir), cfg.Render.OutlineFile)
			outline, err := LoadOutline(outlinePath)
			if err != nil {
				return err
			}

			content, err := renderer.Render(dir, outline)
			if err != nil {
				return err
			}

			outPath := filepath.Join(workspace, filepath.FromSlash(dir), cfg.Render.OutputFile)
			written, err := writeIfChanged(outPath, []byte(content))
			if err != nil {
				return err
			}

			mu.Lock()
			results[i] = Generated{Dir: dir, Output: outPath, Written: written}
			mu.Unlock()

			if written {
				logging.Render("wrote %s", outPath)
			} else {
				logging.RenderDebug("%s up to date", outPath)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// writeIfChanged writes data only when the target differs, reporting
// whether a write happened.
func writeIfChanged(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && string(existing) == string(data) {
		return false, nil
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, err
	}
	return true, nil
}

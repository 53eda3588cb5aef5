package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path"
	"path/filepath"

	"ucdocs/internal/config"
	"ucdocs/internal/index"
	"ucdocs/internal/logging"
	"ucdocs/internal/render"
	"ucdocs/internal/scan"
)

// Sync replaces the taxonomy content from a built index and the workspace
// outlines. Annotations referenced by an outline are attributed to that
// outline's exercise; the rest fall back to the directory of their first
// part.
func Sync(ctx context.Context, s *TaxonomyStore, workspace string, cfg *config.Config, res *scan.Result, idx *index.Index) error {
	timer := logging.StartTimer(logging.CategoryStore, "Sync")
	defer timer.Stop()

	var exercises []Exercise
	exerciseOf := make(map[string]string)

	for _, dir := range render.FindOutlines(res, cfg.Render.OutlineFile) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		outlinePath := filepath.Join(workspace, filepath.FromSlash(dir), cfg.Render.OutlineFile)
		outline, err := render.LoadOutline(outlinePath)
		if err != nil {
			logging.Get(logging.CategoryStore).Warn("skipping %s: %v", outlinePath, err)
			continue
		}

		exercises = append(exercises, Exercise{
			Dir:        dir,
			Title:      outline.Title,
			Summary:    outline.Summary,
			Category:   outline.Category,
			Namespace:  outline.Namespace,
			ReadmeHash: readmeHash(workspace, dir, cfg.Render.OutputFile),
		})

		for _, item := range outline.Outline {
			if item.Unsafe != "" {
				exerciseOf[item.Unsafe] = dir
			}
		}
	}

	var annotations []AnnotationRow
	for _, id := range idx.EntryIDs() {
		entry := idx.Entries[id]
		if len(entry.Parts) == 0 {
			continue
		}
		first := entry.Parts[0]
		exercise, ok := exerciseOf[id]
		if !ok {
			exercise = path.Dir(first.File)
		}
		annotations = append(annotations, AnnotationRow{
			ID:        id,
			Exercise:  exercise,
			Title:     entry.Title,
			Language:  entry.Language,
			File:      first.File,
			Parts:     len(entry.Parts),
			StartLine: first.StartLine,
			EndLine:   entry.Parts[len(entry.Parts)-1].EndLine,
		})
	}

	return s.Replace(idx.RunID, idx.Signature, exercises, annotations)
}

// readmeHash hashes the generated README, or returns empty when it has not
// been generated yet.
func readmeHash(workspace, dir, output string) string {
	data, err := os.ReadFile(filepath.Join(workspace, filepath.FromSlash(dir), output))
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

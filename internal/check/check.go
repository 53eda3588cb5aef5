// Package check validates a workspace: annotation parse findings, broken
// part sequences, outline references, attachment files, and stale READMEs.
// The pass is strictly read-only.
package check

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"ucdocs/internal/annotation"
	"ucdocs/internal/config"
	"ucdocs/internal/index"
	"ucdocs/internal/logging"
	"ucdocs/internal/render"
	"ucdocs/internal/scan"
)

// Finding kinds.
const (
	KindParse      = "parse"      // annotation/marker problems
	KindOutline    = "outline"    // readme.yml problems
	KindOrphan     = "orphan"     // annotation referenced by no outline
	KindAttachment = "attachment" // missing image/.http file
	KindStale      = "stale"      // README signature != index signature
)

// Finding is one validation result.
type Finding struct {
	Kind    string
	File    string
	Line    int
	Message string
}

func (f Finding) String() string {
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d: [%s] %s", f.File, f.Line, f.Kind, f.Message)
	}
	if f.File != "" {
		return fmt.Sprintf("%s: [%s] %s", f.File, f.Kind, f.Message)
	}
	return fmt.Sprintf("[%s] %s", f.Kind, f.Message)
}

// Report is the outcome of a check run.
type Report struct {
	Findings []Finding
}

// OK reports whether the workspace passed with no findings.
func (r *Report) OK() bool {
	return len(r.Findings) == 0
}

func (r *Report) add(kind, file string, line int, format string, args ...interface{}) {
	r.Findings = append(r.Findings, Finding{
		Kind: kind, File: file, Line: line, Message: fmt.Sprintf(format, args...),
	})
}

// Run validates the workspace against a built index. Build problems from
// the index pass are folded in as parse findings.
func Run(ctx context.Context, workspace string, cfg *config.Config, res *scan.Result, idx *index.Index, problems []annotation.Problem) (*Report, error) {
	timer := logging.StartTimer(logging.CategoryCheck, "Run")
	defer timer.Stop()

	report := &Report{}

	for _, p := range problems {
		report.add(KindParse, p.File, p.Line, "%s", p.Message)
	}

	referenced := make(map[string]bool)

	for _, dir := range render.FindOutlines(res, cfg.Render.OutlineFile) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		outlineRel := path.Join(dir, cfg.Render.OutlineFile)
		outlinePath := filepath.Join(workspace, filepath.FromSlash(outlineRel))

		outline, err := render.LoadOutline(outlinePath)
		if err != nil {
			report.add(KindOutline, outlineRel, 0, "%v", err)
			continue
		}

		checkOutline(report, workspace, dir, outlineRel, outline, idx, referenced)

		// Stale README detection via the embedded signature
		readme := filepath.Join(workspace, filepath.FromSlash(dir), cfg.Render.OutputFile)
		if sig := render.ReadSignature(readme); sig != "" && idx.Stale(sig) {
			report.add(KindStale, path.Join(dir, cfg.Render.OutputFile), 0,
				"README is stale: regenerate with `ucdocs generate`")
		}
	}

	// Orphans: indexed annotations no outline references
	for _, id := range idx.EntryIDs() {
		if referenced[id] {
			continue
		}
		entry := idx.Entries[id]
		file := ""
		if len(entry.Parts) > 0 {
			file = entry.Parts[0].File
		}
		report.add(KindOrphan, file, 0, "annotation %q is referenced by no outline", id)
	}

	sort.SliceStable(report.Findings, func(i, j int) bool {
		if report.Findings[i].File != report.Findings[j].File {
			return report.Findings[i].File < report.Findings[j].File
		}
		return report.Findings[i].Line < report.Findings[j].Line
	})

	logging.Get(logging.CategoryCheck).Info("check finished: %d findings", len(report.Findings))
	return report, nil
}

// checkOutline validates one outline's references and attachments.
func checkOutline(report *Report, workspace, dir, outlineRel string, outline *render.Outline, idx *index.Index, referenced map[string]bool) {
	exists := func(rel string) bool {
		_, err := os.Stat(filepath.Join(workspace, filepath.FromSlash(dir), filepath.FromSlash(rel)))
		return err == nil
	}

	for i, item := range outline.Outline {
		switch {
		case item.Unsafe != "":
			entry, ok := idx.Entries[item.Unsafe]
			if !ok {
				report.add(KindOutline, outlineRel, 0,
					"item %d references unknown annotation %q", i+1, item.Unsafe)
				continue
			}
			referenced[item.Unsafe] = true
			if entry.HTTP != "" && !exists(entry.HTTP) {
				report.add(KindAttachment, outlineRel, 0,
					"annotation %q: http attachment %q not found", item.Unsafe, entry.HTTP)
			}
		case item.Image != "":
			if !exists(item.Image) {
				report.add(KindAttachment, outlineRel, 0, "image %q not found", item.Image)
			}
		case item.HTTP != "":
			if !exists(item.HTTP) {
				report.add(KindAttachment, outlineRel, 0, "http attachment %q not found", item.HTTP)
			}
		}
	}
}

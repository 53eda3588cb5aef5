package index

import (
	"context"
	"fmt"
	"os"
	"sort"

	"ucdocs/internal/annotation"
	"ucdocs/internal/config"
	"ucdocs/internal/logging"
	"ucdocs/internal/resolve"
	"ucdocs/internal/scan"

	"github.com/google/uuid"
)

// Builder turns a scan result into an index, reusing cached fragments for
// files whose content hash is unchanged.
type Builder struct {
	resolver *resolve.Resolver
	version  string
}

// NewBuilder creates a builder with its own resolver.
func NewBuilder() *Builder {
	return &Builder{
		resolver: resolve.NewResolver(),
		version:  config.Version,
	}
}

// Close releases the builder's resolver.
func (b *Builder) Close() {
	b.resolver.Close()
}

// Build produces a fresh index from the scan result, carrying over file
// records from prev wherever the content hash matches. Parse and resolution
// findings are returned as problems; only I/O failures abort the build.
func (b *Builder) Build(ctx context.Context, result *scan.Result, prev *Index) (*Index, []annotation.Problem, error) {
	timer := logging.StartTimer(logging.CategoryIndex, "Build")
	defer timer.Stop()

	idx := New()
	idx.RunID = uuid.NewString()

	var problems []annotation.Problem
	reused := 0

	for _, f := range result.Files {
		if !annotation.Supported(f.Language) {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		if prevRec, ok := prev.Files[f.Path]; ok && prevRec.Hash == f.Hash {
			rec := prevRec
			rec.ModTime = f.ModTime
			rec.Size = f.Size
			idx.Files[f.Path] = rec
			reused++
			continue
		}

		rec, fileProblems, err := b.buildFile(ctx, f)
		if err != nil {
			return nil, nil, err
		}
		problems = append(problems, fileProblems...)
		idx.Files[f.Path] = rec
	}

	problems = append(problems, mergeEntries(idx)...)

	idx.Signature = signature(idx.Files, b.version)
	idx.GeneratedAt = timestamp()

	logging.Index("built index: %d files (%d reused), %d entries, %d problems",
		len(idx.Files), reused, len(idx.Entries), len(problems))
	return idx, problems, nil
}

// buildFile parses and resolves one changed file.
func (b *Builder) buildFile(ctx context.Context, f scan.File) (FileRecord, []annotation.Problem, error) {
	rec := FileRecord{
		Hash:     f.Hash,
		ModTime:  f.ModTime,
		Size:     f.Size,
		Language: f.Language,
	}

	content, err := os.ReadFile(f.Abs)
	if err != nil {
		return rec, nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}

	anns, problems := annotation.Parse(f.Path, f.Language, content)

	for _, ann := range anns {
		span, err := b.resolver.Resolve(ctx, ann, content)
		if err != nil {
			problems = append(problems, annotation.Problem{
				File: f.Path, Line: ann.Line, Message: err.Error(),
			})
			continue
		}
		rec.Fragments = append(rec.Fragments, Fragment{
			ID:        ann.ID,
			Title:     ann.Title,
			Notes:     ann.Notes,
			HTTP:      ann.HTTP,
			Part:      ann.Part,
			StartLine: span.StartLine,
			EndLine:   span.EndLine,
			Code:      span.Code,
		})
	}

	logging.IndexDebug("%s: %d fragments, %d problems", f.Path, len(rec.Fragments), len(problems))
	return rec, problems, nil
}

// mergeEntries folds per-file fragments into entries, ordered by ascending
// part number. Duplicate part numbers and gaps in the sequence are problems;
// affected entries are dropped so renders stay deterministic.
func mergeEntries(idx *Index) []annotation.Problem {
	type located struct {
		file string
		frag Fragment
	}
	byID := make(map[string][]located)

	paths := make([]string, 0, len(idx.Files))
	for p := range idx.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		for _, frag := range idx.Files[path].Fragments {
			byID[frag.ID] = append(byID[frag.ID], located{path, frag})
		}
	}

	var problems []annotation.Problem

	for id, frags := range byID {
		sort.Slice(frags, func(i, j int) bool {
			return frags[i].frag.PartNumber() < frags[j].frag.PartNumber()
		})

		ok := true
		for i, lf := range frags {
			want := i + 1
			got := lf.frag.PartNumber()
			if got == want {
				continue
			}
			ok = false
			if i > 0 && got == frags[i-1].frag.PartNumber() {
				problems = append(problems, annotation.Problem{
					File:    lf.file,
					Message: fmt.Sprintf("duplicate part %d for @unsafe[%s]", got, id),
				})
			} else {
				problems = append(problems, annotation.Problem{
					File:    lf.file,
					Message: fmt.Sprintf("part sequence for @unsafe[%s] is broken: want part %d, found %d", id, want, got),
				})
			}
			break
		}
		if !ok {
			continue
		}

		first := frags[0].frag
		entry := &Entry{
			ID:       id,
			Title:    first.Title,
			Notes:    first.Notes,
			HTTP:     first.HTTP,
			Language: idx.Files[frags[0].file].Language,
		}
		for _, lf := range frags {
			entry.Parts = append(entry.Parts, Part{
				File:      lf.file,
				Language:  idx.Files[lf.file].Language,
				Part:      lf.frag.PartNumber(),
				StartLine: lf.frag.StartLine,
				EndLine:   lf.frag.EndLine,
				Code:      lf.frag.Code,
			})
		}
		idx.Entries[id] = entry
	}

	return problems
}

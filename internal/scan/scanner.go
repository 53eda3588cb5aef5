// Package scan walks an exercise workspace, hashing files and detecting
// languages. A mod-time+size fingerprint cache keeps repeat scans from
// re-hashing unchanged files.
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ucdocs/internal/config"
	"ucdocs/internal/logging"
)

// File is a single scanned workspace file.
type File struct {
	Path     string // workspace-relative, forward slashes
	Abs      string
	Language string
	Hash     string
	ModTime  int64
	Size     int64
	Changed  bool // hash differs from the previous scan's record
}

// Result represents the result of a workspace scan.
type Result struct {
	Files          []File
	FileCount      int
	DirectoryCount int
	Languages      map[string]int // language -> count
}

// Changed returns the subset of files whose content hash changed since the
// previous scan.
func (r *Result) Changed() []File {
	var out []File
	for _, f := range r.Files {
		if f.Changed {
			out = append(out, f)
		}
	}
	return out
}

// Scanner handles file system indexing for a single workspace root.
type Scanner struct {
	root  string
	cfg   config.ScannerConfig
	cache *FileCache
}

// NewScanner creates a scanner rooted at the given workspace directory.
func NewScanner(root string, cfg config.ScannerConfig) *Scanner {
	manifest := cfg.CachePath
	if !filepath.IsAbs(manifest) {
		manifest = filepath.Join(root, manifest)
	}
	return &Scanner{
		root:  root,
		cfg:   cfg,
		cache: NewFileCache(manifest),
	}
}

// Cache exposes the underlying file cache (watch mode shares it).
func (s *Scanner) Cache() *FileCache {
	return s.cache
}

// Scan walks the workspace and returns hashed file records.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryScan, "Scan")
	defer timer.Stop()

	result := &Result{
		Files:     make([]File, 0),
		Languages: make(map[string]int),
	}
	var mu sync.Mutex // Protects result
	defer s.cache.Save()

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 20
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers) // Limit concurrency

	present := make(map[string]bool)
	var presentMu sync.Mutex

	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return err
		}

		if info.IsDir() {
			name := info.Name()
			if strings.HasPrefix(name, ".") && path != s.root {
				// Allowlist for hidden configuration directories
				if s.hiddenAllowed(name) {
					return nil
				}
				return filepath.SkipDir
			}
			mu.Lock()
			result.DirectoryCount++
			mu.Unlock()
			return nil
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if s.excluded(rel) {
			return nil
		}

		presentMu.Lock()
		present[rel] = true
		presentMu.Unlock()

		wg.Add(1)
		go func(path, rel string, info os.FileInfo) {
			defer wg.Done()
			sem <- struct{}{}        // Acquire token
			defer func() { <-sem }() // Release token

			prev, hadPrev := s.cache.Previous(rel)

			var hash string
			cachedHash, hit := s.cache.Get(rel, info)
			if hit {
				hash = cachedHash
			} else {
				h, err := hashFile(path)
				if err != nil {
					logging.ScanDebug("skipping unreadable file %s: %v", rel, err)
					return
				}
				hash = h
				s.cache.Update(rel, info, hash)
			}

			lang := DetectLanguage(path)

			f := File{
				Path:     rel,
				Abs:      path,
				Language: lang,
				Hash:     hash,
				ModTime:  info.ModTime().Unix(),
				Size:     info.Size(),
				Changed:  !hadPrev || prev != hash,
			}

			mu.Lock()
			result.FileCount++
			result.Languages[lang]++
			result.Files = append(result.Files, f)
			mu.Unlock()
		}(path, rel, info)

		return nil
	})

	wg.Wait()
	if err != nil {
		return nil, err
	}

	s.cache.Forget(present)

	logging.Scan("scanned %d files (%d dirs) under %s", result.FileCount, result.DirectoryCount, s.root)
	return result, nil
}

// hiddenAllowed reports whether a hidden directory should be descended into.
func (s *Scanner) hiddenAllowed(name string) bool {
	if name == ".git" || name == ".ucdocs" {
		return false
	}
	for _, allowed := range s.cfg.HiddenAllow {
		if name == allowed {
			return true
		}
	}
	return false
}

// excluded applies the configured exclude globs and the implicit include
// filter to a workspace-relative path.
func (s *Scanner) excluded(rel string) bool {
	for _, pattern := range s.cfg.Exclude {
		if matchGlob(pattern, rel) {
			return true
		}
	}
	if len(s.cfg.Include) == 0 {
		return false
	}
	for _, pattern := range s.cfg.Include {
		if matchGlob(pattern, rel) {
			return false
		}
	}
	return true
}

// matchGlob matches rel against a pattern. `**` matches any number of path
// segments; a single `*` never crosses a separator.
func matchGlob(pattern, rel string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(rel, "/"))
}

func matchSegments(pat, parts []string) bool {
	if len(pat) == 0 {
		return len(parts) == 0
	}
	if pat[0] == "**" {
		// ** may swallow zero or more segments
		for i := 0; i <= len(parts); i++ {
			if matchSegments(pat[1:], parts[i:]) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		return false
	}
	ok, err := filepath.Match(pat[0], parts[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pat[1:], parts[1:])
}

// hashFile computes the SHA-256 of a file's contents.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

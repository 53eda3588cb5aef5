package scan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// CacheEntry represents cached metadata for a single file.
type CacheEntry struct {
	Hash    string `json:"hash"`
	ModTime int64  `json:"mod_time"`
	Size    int64  `json:"size"`
}

// FileCache manages file metadata caching to avoid re-hashing unchanged files.
type FileCache struct {
	mu      sync.RWMutex
	path    string
	Entries map[string]CacheEntry `json:"entries"`
	Dirty   bool                  `json:"-"`
}

// NewFileCache creates or loads a file cache backed by the given manifest path.
func NewFileCache(manifestPath string) *FileCache {
	cache := &FileCache{
		path:    manifestPath,
		Entries: make(map[string]CacheEntry),
	}
	cache.load()
	return cache
}

// load reads the cache from disk.
func (c *FileCache) load() {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if err != nil {
		// Cache doesn't exist or isn't readable, start fresh
		return
	}

	if err := json.Unmarshal(data, &c.Entries); err != nil {
		// Corrupt cache, start fresh
		c.Entries = make(map[string]CacheEntry)
	}
}

// Save writes the cache to disk if dirty.
func (c *FileCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.Dirty {
		return nil
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c.Entries, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return err
	}

	c.Dirty = false
	return nil
}

// Get returns the cached hash if the file's fingerprint (mod time + size)
// hasn't changed.
func (c *FileCache) Get(path string, info os.FileInfo) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.Entries[path]
	if !ok {
		return "", false
	}

	if entry.ModTime == info.ModTime().Unix() && entry.Size == info.Size() {
		return entry.Hash, true
	}

	return "", false
}

// Previous returns the last recorded hash for a path regardless of
// fingerprint, for change detection across rebuilds.
func (c *FileCache) Previous(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.Entries[path]
	return entry.Hash, ok
}

// Update updates the cache with a new hash.
func (c *FileCache) Update(path string, info os.FileInfo, hash string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Entries[path] = CacheEntry{
		Hash:    hash,
		ModTime: info.ModTime().Unix(),
		Size:    info.Size(),
	}
	c.Dirty = true
}

// Forget removes entries for paths no longer present in the workspace.
func (c *FileCache) Forget(present map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for path := range c.Entries {
		if !present[path] {
			delete(c.Entries, path)
			c.Dirty = true
		}
	}
}

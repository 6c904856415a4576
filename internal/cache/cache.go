// Package cache keeps compiled client artifacts keyed by the hash of the
// sources that produced them, so unchanged builds are not recompiled.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const indexFile = "index.json"

// Cache stores artifacts in a directory with a JSON index
type Cache struct {
	mu      sync.Mutex
	dir     string
	maxSize int64
	index   *Index
	stats   Stats
	now     func() time.Time
}

// Index tracks all cached entries
type Index struct {
	Version string            `json:"version"`
	Entries map[string]*Entry `json:"entries"`
}

// Entry is one cached artifact
type Entry struct {
	Key        string    `json:"key"`
	File       string    `json:"file"`
	Size       int64     `json:"size"`
	Created    time.Time `json:"created"`
	LastAccess time.Time `json:"last_access"`
}

// Stats counts cache outcomes for the lifetime of a Cache
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalSize int64
}

// Config holds cache configuration
type Config struct {
	Dir     string // default: $XDG_CACHE_HOME/vecremote
	MaxSize int64  // bytes; <= 0 means unbounded
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return Config{
		Dir:     filepath.Join(dir, "vecremote"),
		MaxSize: 256 << 20,
	}
}

// New opens the cache at cfg.Dir, creating it when missing. A corrupt
// index starts the cache fresh.
func New(cfg Config) (*Cache, error) {
	if cfg.Dir == "" {
		cfg.Dir = DefaultConfig().Dir
	}
	if err := os.MkdirAll(filepath.Join(cfg.Dir, "artifacts"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		dir:     cfg.Dir,
		maxSize: cfg.MaxSize,
		index:   &Index{Version: "1", Entries: make(map[string]*Entry)},
		now:     time.Now,
	}
	if data, err := os.ReadFile(filepath.Join(cfg.Dir, indexFile)); err == nil {
		var idx Index
		if json.Unmarshal(data, &idx) == nil && idx.Entries != nil {
			c.index = &idx
		}
	}
	for _, e := range c.index.Entries {
		c.stats.TotalSize += e.Size
	}
	return c, nil
}

// Get returns the artifact stored under key.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.index.Entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	data, err := os.ReadFile(filepath.Join(c.dir, "artifacts", entry.File))
	if err != nil {
		c.dropLocked(key)
		c.stats.Misses++
		_ = c.saveLocked()
		return nil, false
	}

	entry.LastAccess = c.now()
	c.stats.Hits++
	_ = c.saveLocked()
	return data, true
}

// Put stores data under key, evicting least recently used entries to stay
// within the size limit.
func (c *Cache) Put(key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := int64(len(data))
	c.dropLocked(key)
	c.evictLocked(size)

	file := sanitizeKey(key)
	if err := os.WriteFile(filepath.Join(c.dir, "artifacts", file), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	now := c.now()
	c.index.Entries[key] = &Entry{Key: key, File: file, Size: size, Created: now, LastAccess: now}
	c.stats.TotalSize += size
	return c.saveLocked()
}

// Stats returns a snapshot of the counters
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Len returns the number of entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index.Entries)
}

func (c *Cache) evictLocked(needed int64) {
	if c.maxSize <= 0 {
		return
	}
	for c.stats.TotalSize+needed > c.maxSize && len(c.index.Entries) > 0 {
		var victim *Entry
		for _, e := range c.index.Entries {
			if victim == nil || e.LastAccess.Before(victim.LastAccess) {
				victim = e
			}
		}
		c.dropLocked(victim.Key)
		c.stats.Evictions++
	}
}

func (c *Cache) dropLocked(key string) {
	e, ok := c.index.Entries[key]
	if !ok {
		return
	}
	_ = os.Remove(filepath.Join(c.dir, "artifacts", e.File))
	delete(c.index.Entries, key)
	c.stats.TotalSize -= e.Size
}

func (c *Cache) saveLocked() error {
	data, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, indexFile), data, 0o644)
}

// Key hashes inputs into a cache key
func Key(inputs ...string) string {
	h := sha256.New()
	for _, input := range inputs {
		h.Write([]byte(input))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// KeyFromSources hashes every non-test .go file under roots, plus any root
// that is itself a file, in a stable order. Missing roots are skipped.
func KeyFromSources(roots ...string) (string, error) {
	var files []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root && errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				return nil
			}
			if path == root || (strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go")) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	sort.Strings(files)

	h := sha256.New()
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		h.Write([]byte(filepath.ToSlash(file)))
		h.Write([]byte{0})
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// File keeps one JSON document per entry in a directory.
type File struct {
	dir     string
	ttl     time.Duration
	enabled bool
	now     func() time.Time
	mu      sync.Mutex
}

// NewFile creates a file store. If dir is empty, uses the default cache
// directory. A ttl of zero never expires entries.
func NewFile(enabled bool, dir string, ttl time.Duration, opts ...Option) (*File, error) {
	o := buildOptions(opts)
	if !enabled {
		return &File{enabled: false, now: o.now}, nil
	}
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &File{
		dir:     dir,
		ttl:     ttl,
		enabled: true,
		now:     o.now,
	}, nil
}

func (c *File) Get(key string) (Entry, bool) {
	if !c.enabled {
		return Entry{}, false
	}
	path := c.entryPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false
	}
	if entry.Key != key {
		return Entry{}, false
	}
	if expired(entry.CreatedAt, c.now(), c.ttl) {
		c.mu.Lock()
		os.Remove(path)
		c.mu.Unlock()
		return Entry{}, false
	}
	return entry, true
}

func (c *File) Put(e Entry) error {
	if !c.enabled {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = c.now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	// Write to a temp file and rename so concurrent readers never see a
	// partial document.
	c.mu.Lock()
	defer c.mu.Unlock()
	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return os.Rename(tmp.Name(), c.entryPath(e.Key))
}

// Clear removes all cache entries.
func (c *File) Clear() error {
	if !c.enabled || c.dir == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
				return fmt.Errorf("removing %s: %w", e.Name(), err)
			}
		}
	}
	return nil
}

func (c *File) Stats() (Stats, error) {
	stats := Stats{Backend: "file", Dir: c.dir}
	if !c.enabled || c.dir == "" {
		return stats, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	now := c.now()
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()

		data, err := os.ReadFile(filepath.Join(c.dir, e.Name()))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		if expired(entry.CreatedAt, now, c.ttl) {
			stats.Expired++
		}
	}
	return stats, nil
}

func (c *File) Close() error { return nil }

// Enabled returns whether caching is enabled.
func (c *File) Enabled() bool {
	return c.enabled
}

func (c *File) entryPath(key string) string {
	return filepath.Join(c.dir, HashKey(key)+".json")
}

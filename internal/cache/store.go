package cache

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// DefaultTTL is how long a refinement outcome stays valid.
const DefaultTTL = 24 * time.Hour

// directKeyLimit is the text length from which keys become digests.
const directKeyLimit = 100

const keyPrefix = "refine:"

// Entry is one cached refinement outcome.
type Entry struct {
	Key         string    `json:"key"`
	RefinedText string    `json:"refinedText"`
	Accepted    bool      `json:"accepted"`
	Outcome     string    `json:"outcome,omitempty"` // accepted, rejected or malformed
	CreatedAt   time.Time `json:"createdAt"`
}

// Stats summarises a store's contents.
type Stats struct {
	Backend    string `json:"backend"`
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
}

// Store is a durable key-value store for refinement outcomes.
type Store interface {
	// Get returns the entry for key unless it is missing or expired.
	Get(key string) (Entry, bool)
	// Put stores e under e.Key, stamping CreatedAt when it is zero.
	Put(e Entry) error
	Clear() error
	Stats() (Stats, error)
	Close() error
}

// Option customises a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests that exercise expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Config selects and parameterises a backend.
type Config struct {
	Enabled bool
	Backend string // file or badger
	Dir     string
	TTL     time.Duration
}

// Open returns the store described by cfg. A disabled config yields a
// store that never hits and never writes.
func Open(cfg Config, opts ...Option) (Store, error) {
	if !cfg.Enabled {
		return NewFile(false, "", 0, opts...)
	}
	switch cfg.Backend {
	case "", "file":
		return NewFile(true, cfg.Dir, cfg.TTL, opts...)
	case "badger":
		dir := cfg.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(d, "badger")
		}
		return NewBadger(BadgerConfig{Path: dir, TTL: cfg.TTL}, opts...)
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}

// RefinementKey derives the cache key for a decrypted text.
func RefinementKey(text string) string {
	if len(text) < directKeyLimit {
		return keyPrefix + text
	}
	return keyPrefix + "sha256:" + HashKey(text)
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

func expired(createdAt, now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(createdAt) >= ttl
}

// DefaultDir returns the platform cache directory for colsolve.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "colsolve"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "colsolve"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "colsolve", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "colsolve", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "colsolve"), nil
	}
}

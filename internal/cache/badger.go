package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// BadgerConfig configures a BadgerDB-backed store.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string
	// InMemory keeps the database off disk.
	InMemory bool
	TTL      time.Duration
	// Logger receives BadgerDB's internal messages. Nil silences them.
	Logger *zerolog.Logger
}

// badgerLogger adapts zerolog to BadgerDB's Logger interface.
type badgerLogger struct {
	log *zerolog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msgf(format, args...)
}

// Badger stores entries in BadgerDB with a native per-key TTL.
type Badger struct {
	db   *badger.DB
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewBadger opens (or creates) a BadgerDB store.
func NewBadger(cfg BadgerConfig, opts ...Option) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger cache: path is required")
	}
	o := buildOptions(opts)

	var bopts badger.Options
	if cfg.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
		bopts = badger.DefaultOptions(cfg.Path)
	}
	if cfg.Logger != nil {
		bopts = bopts.WithLogger(&badgerLogger{log: cfg.Logger})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening badger cache: %w", err)
	}
	return &Badger{db: db, path: cfg.Path, ttl: cfg.TTL, now: o.now}, nil
}

func (b *Badger) Get(key string) (Entry, bool) {
	var entry Entry
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return Entry{}, false
	}
	// The native TTL runs on wall time; the stored timestamp also honours
	// an injected clock.
	if expired(entry.CreatedAt, b.now(), b.ttl) {
		return Entry{}, false
	}
	return entry, true
}

func (b *Badger) Put(e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = b.now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		be := badger.NewEntry([]byte(e.Key), data)
		if b.ttl > 0 {
			be = be.WithTTL(b.ttl)
		}
		return txn.SetEntry(be)
	})
}

func (b *Badger) Clear() error {
	return b.db.DropAll()
}

func (b *Badger) Stats() (Stats, error) {
	stats := Stats{Backend: "badger", Dir: b.path}
	now := b.now()
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			stats.Entries++
			stats.TotalBytes += item.EstimatedSize()
			var entry Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				continue
			}
			if expired(entry.CreatedAt, now, b.ttl) {
				stats.Expired++
			}
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("scanning badger cache: %w", err)
	}
	return stats, nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

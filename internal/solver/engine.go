package solver

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dshills/colsolve/internal/cache"
	"github.com/dshills/colsolve/internal/config"
	"github.com/dshills/colsolve/internal/logger"
	"github.com/dshills/colsolve/internal/metrics"
	"github.com/dshills/colsolve/internal/providers"
	"github.com/dshills/colsolve/internal/refine"
	"github.com/dshills/colsolve/internal/transposition"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	toolName      = "colsolve"
	schemaVersion = "1.0"
)

// Engine runs solves against one configuration. It is safe for concurrent
// use; each Run draws from its own random source.
type Engine struct {
	cfg       config.Config
	oracle    providers.Completer
	store     cache.Store
	ownsStore bool
	refiner   *refine.Refiner
	log       *zerolog.Logger
}

// Option customises an Engine.
type Option func(*Engine)

// WithOracle sets the completer used for refinement instead of building one
// from the config.
func WithOracle(c providers.Completer) Option {
	return func(e *Engine) { e.oracle = c }
}

// WithStore sets the refinement cache instead of opening one from the
// config. The caller keeps ownership.
func WithStore(s cache.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithLogger sets the engine's logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New creates an Engine. Refinement is skipped when it is disabled or the
// oracle cannot be built; a cache that fails to open only disables caching.
// Neither stops a solve.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Named("solver")
	}
	if !cfg.Refine.Enabled {
		return e, nil
	}

	if e.oracle == nil {
		c, err := providers.New(providers.Settings{
			Provider: cfg.Oracle.Provider,
			Endpoint: cfg.Oracle.Endpoint,
			Model:    cfg.Oracle.Model,
			APIKey:   cfg.Oracle.APIKey,
			Timeout:  time.Duration(cfg.Oracle.TimeoutSeconds) * time.Second,
		})
		switch {
		case errors.Is(err, providers.ErrNotConfigured):
			e.log.Info().Msg("no oracle endpoint configured, refinement disabled")
			return e, nil
		case err != nil:
			e.log.Warn().Err(err).Str("provider", cfg.Oracle.Provider).Msg("oracle unusable, refinement disabled")
			return e, nil
		}
		e.oracle = providers.WithLimit(c, cfg.Oracle.RequestsPerSecond, 1)
	}

	if e.store == nil && cfg.Cache.Enabled {
		s, err := cache.Open(cache.Config{
			Enabled: true,
			Backend: cfg.Cache.Backend,
			Dir:     cfg.Cache.Dir,
			TTL:     time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		})
		if err != nil {
			e.log.Warn().Err(err).Msg("refinement cache unavailable, refining uncached")
		} else {
			e.store = s
			e.ownsStore = true
		}
	}

	e.refiner = refine.New(e.oracle, e.store, refine.Options{
		TopN:        cfg.Refine.TopN,
		Similarity:  cfg.Refine.Similarity,
		MaxTokens:   cfg.Oracle.MaxTokens,
		Temperature: cfg.Oracle.Temperature,
	}, logger.Named("refine"))
	return e, nil
}

// Close releases the cache if the engine opened it.
func (e *Engine) Close() error {
	if e.ownsStore && e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Refines reports whether Run will consult the oracle.
func (e *Engine) Refines() bool {
	return e.refiner != nil
}

// SearchOptions builds the transposition options for one run.
func (e *Engine) SearchOptions() transposition.Options {
	s := e.cfg.Solver
	seed := s.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return transposition.Options{
		Search: transposition.SearchOptions{
			ExhaustiveLimit: s.ExhaustiveLimit,
			Samples:         s.Samples,
			Strategy:        transposition.Strategy(s.Strategy),
			Rand:            rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		},
		Weights:         transposition.DefaultWeights(),
		PerDimension:    s.PerDimension,
		SignalThreshold: s.SignalThreshold,
		RelativeWindow:  s.RelativeWindow,
		MaxResults:      s.MaxResults,
		FallbackResults: s.FallbackResults,
	}
}

// Run normalises ciphertext, searches every grid shape and refines the top
// candidates. Invalid input returns an error wrapping
// transposition.ErrInvalidCiphertext; a prime length is a successful run
// with StatusNoDimensions.
func (e *Engine) Run(ctx context.Context, ciphertext string, progress transposition.ProgressFunc) (*Report, error) {
	start := time.Now()
	ct := transposition.Normalize(ciphertext)
	if err := transposition.Validate(ct); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := e.log.With().Int("length", len(ct)).Logger()
	log.Debug().Msg("search starting")

	res, err := transposition.SolveDetailed(ct, e.SearchOptions(), progress)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	searchMs := time.Since(start).Milliseconds()
	metrics.OrdersEvaluated.Add(float64(res.Evaluated))
	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	report := &Report{
		Tool:       toolName,
		Version:    schemaVersion,
		RunID:      uuid.NewString(),
		CipherText: ct,
		Length:     len(ct),
		Status:     StatusOK,
		Dimensions: res.Dimensions,
		Evaluated:  res.Evaluated,
		Candidates: res.Candidates,
	}
	if len(res.Dimensions) == 0 {
		report.Status = StatusNoDimensions
		report.Message = NoDimensionsMessage
		report.Dimensions = []transposition.Dimension{}
	}
	log.Debug().
		Int("dimensions", len(res.Dimensions)).
		Int("evaluated", res.Evaluated).
		Int("candidates", len(res.Candidates)).
		Msg("search finished")

	var refineMs int64
	if e.refiner != nil && len(report.Candidates) > 0 {
		refineStart := time.Now()
		cands, sum := e.refiner.RefineDetailed(ctx, report.Candidates)
		report.Candidates = cands
		report.Refinement = &sum
		report.Oracle = e.oracle.Name()
		refineMs = time.Since(refineStart).Milliseconds()
	}

	report.Timing = Timing{
		SearchMs: searchMs,
		RefineMs: refineMs,
		TotalMs:  time.Since(start).Milliseconds(),
	}
	metrics.SolvesTotal.WithLabelValues(string(report.Status)).Inc()
	return report, nil
}

package refine

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/colsolve/internal/cache"
	"github.com/dshills/colsolve/internal/metrics"
	"github.com/dshills/colsolve/internal/providers"
	"github.com/dshills/colsolve/internal/transposition"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Outcome classes. Each is absorbed by Refine; they are exposed so callers
// of Evaluate can tell them apart with errors.Is.
var (
	ErrUnavailable = errors.New("oracle unavailable")
	ErrMalformed   = errors.New("oracle reply malformed")
	ErrUntrusted   = errors.New("oracle suggestion failed similarity gate")
)

// Defaults.
const (
	DefaultTopN        = 3
	DefaultSimilarity  = 0.9
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.1
)

// Options tunes refinement.
type Options struct {
	TopN        int
	Similarity  float64
	MaxTokens   int
	Temperature float64
}

// DefaultOptions returns the stock refinement settings.
func DefaultOptions() Options {
	return Options{
		TopN:        DefaultTopN,
		Similarity:  DefaultSimilarity,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
}

// Result is the outcome of evaluating one decryption.
type Result struct {
	// Text is the accepted suggestion, or the decryption when nothing was
	// accepted.
	Text       string
	Outcome    string
	Similarity float64
	Err        error
}

// Accepted reports whether Text came from the oracle.
func (r Result) Accepted() bool {
	return r.Err == nil
}

// Summary counts outcomes over one Refine call.
type Summary struct {
	Attempted   int `json:"attempted" yaml:"attempted"`
	Accepted    int `json:"accepted" yaml:"accepted"`
	Rejected    int `json:"rejected" yaml:"rejected"`
	Malformed   int `json:"malformed" yaml:"malformed"`
	Unavailable int `json:"unavailable" yaml:"unavailable"`
	Cached      int `json:"cached" yaml:"cached"`
}

func (s *Summary) add(r Result) {
	s.Attempted++
	switch r.Outcome {
	case metrics.OutcomeAccepted:
		s.Accepted++
	case metrics.OutcomeRejected:
		s.Rejected++
	case metrics.OutcomeMalformed:
		s.Malformed++
	case metrics.OutcomeUnavailable:
		s.Unavailable++
	case metrics.OutcomeCached:
		s.Cached++
	}
}

// Refiner augments candidates with oracle suggestions.
type Refiner struct {
	oracle providers.Completer
	store  cache.Store
	opts   Options
	log    *zerolog.Logger
}

// New creates a Refiner. store may be nil to disable caching; log may be nil.
func New(oracle providers.Completer, store cache.Store, opts Options, log *zerolog.Logger) *Refiner {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	if opts.TopN < 0 {
		opts.TopN = 0
	}
	return &Refiner{oracle: oracle, store: store, opts: opts, log: log}
}

// Refine returns a copy of candidates in which the first TopN may carry a
// RefinedText. The input slice is not modified.
func (r *Refiner) Refine(ctx context.Context, candidates []transposition.Candidate) []transposition.Candidate {
	out, _ := r.RefineDetailed(ctx, candidates)
	return out
}

// RefineDetailed is Refine plus an outcome summary.
func (r *Refiner) RefineDetailed(ctx context.Context, candidates []transposition.Candidate) ([]transposition.Candidate, Summary) {
	out := make([]transposition.Candidate, len(candidates))
	copy(out, candidates)

	n := min(r.opts.TopN, len(out))
	results := make([]Result, n)

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			results[i] = r.Evaluate(ctx, out[i].DecryptedText)
			return nil
		})
	}
	_ = g.Wait()

	var sum Summary
	for i, res := range results {
		sum.add(res)
		if res.Accepted() && res.Text != out[i].DecryptedText {
			out[i] = out[i].WithRefinement(res.Text)
		}
	}
	return out, sum
}

// Evaluate refines a single decryption, consulting the cache first.
func (r *Refiner) Evaluate(ctx context.Context, decrypted string) Result {
	key := cache.RefinementKey(decrypted)
	log := r.log.With().Int("length", len(decrypted)).Logger()

	if r.store != nil {
		if entry, ok := r.store.Get(key); ok {
			res := Result{Text: decrypted, Outcome: metrics.OutcomeCached}
			switch {
			case entry.Accepted:
				res.Text = entry.RefinedText
				res.Similarity = Similarity(decrypted, entry.RefinedText)
			case entry.Outcome == metrics.OutcomeMalformed:
				res.Err = ErrMalformed
			default:
				res.Similarity = Similarity(decrypted, entry.RefinedText)
				res.Err = ErrUntrusted
			}
			log.Debug().Bool("accepted", entry.Accepted).Str("stored", entry.Outcome).Msg("refinement cache hit")
			metrics.RefineOutcomes.WithLabelValues(metrics.OutcomeCached).Inc()
			return res
		}
	}

	res := r.ask(ctx, decrypted)
	metrics.RefineOutcomes.WithLabelValues(res.Outcome).Inc()

	switch res.Outcome {
	case metrics.OutcomeUnavailable:
		log.Warn().Err(res.Err).Msg("oracle unavailable, keeping raw decryption")
		return res.Result
	case metrics.OutcomeMalformed, metrics.OutcomeRejected:
		log.Debug().Err(res.Err).Float64("similarity", res.Similarity).Msg("oracle suggestion discarded")
	default:
		log.Debug().Float64("similarity", res.Similarity).Msg("oracle suggestion accepted")
	}

	if r.store != nil {
		entry := cache.Entry{Key: key, RefinedText: res.Text, Accepted: res.Accepted(), Outcome: res.Outcome}
		if res.Outcome == metrics.OutcomeRejected {
			entry.RefinedText = res.suggestion
		}
		if err := r.store.Put(entry); err != nil {
			log.Warn().Err(err).Msg("caching refinement failed")
		}
	}
	return res.Result
}

func (r *Refiner) ask(ctx context.Context, decrypted string) result {
	if r.oracle == nil {
		return result{Result: Result{Text: decrypted, Outcome: metrics.OutcomeUnavailable, Err: ErrUnavailable}}
	}

	resp, err := r.oracle.Complete(ctx, providers.CompletionRequest{
		Prompt:      buildPrompt(decrypted),
		MaxTokens:   r.opts.MaxTokens,
		Temperature: r.opts.Temperature,
	})
	if err != nil {
		metrics.OracleRequests.WithLabelValues(r.oracle.Name(), "error").Inc()
		return result{Result: Result{Text: decrypted, Outcome: metrics.OutcomeUnavailable, Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}}
	}
	metrics.OracleRequests.WithLabelValues(r.oracle.Name(), "ok").Inc()

	suggestion, err := parseSuggestion(resp.Content)
	if err != nil {
		return result{Result: Result{Text: decrypted, Outcome: metrics.OutcomeMalformed, Err: err}}
	}

	sim := Similarity(decrypted, suggestion)
	if sim < r.opts.Similarity {
		return result{
			Result:     Result{Text: decrypted, Outcome: metrics.OutcomeRejected, Similarity: sim, Err: fmt.Errorf("%w: %.2f < %.2f", ErrUntrusted, sim, r.opts.Similarity)},
			suggestion: suggestion,
		}
	}
	return result{Result: Result{Text: suggestion, Outcome: metrics.OutcomeAccepted, Similarity: sim}}
}

// result carries a rejected suggestion so it can be cached for inspection.
type result struct {
	Result
	suggestion string
}

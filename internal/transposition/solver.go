package transposition

import (
	"sort"
)

// Aggregation defaults. The thresholds are empirical; treat them as tunable.
const (
	DefaultPerDimension    = 10
	DefaultSignalThreshold = -20.0
	DefaultRelativeWindow  = 10.0
	DefaultMaxResults      = 15
	DefaultFallbackResults = 10
)

// Options configures a full solve.
type Options struct {
	Search  SearchOptions
	Weights Weights
	// PerDimension caps the candidates kept from each grid before merging.
	PerDimension int
	// SignalThreshold is the top score above which the relative window applies.
	SignalThreshold float64
	// RelativeWindow keeps candidates scoring at least top-RelativeWindow.
	RelativeWindow float64
	// MaxResults caps the list when a signal is present.
	MaxResults int
	// FallbackResults is the list size when no candidate clears SignalThreshold.
	FallbackResults int
}

// DefaultOptions returns the stock search and selection parameters.
func DefaultOptions() Options {
	return Options{
		Search:          DefaultSearchOptions(),
		Weights:         DefaultWeights(),
		PerDimension:    DefaultPerDimension,
		SignalThreshold: DefaultSignalThreshold,
		RelativeWindow:  DefaultRelativeWindow,
		MaxResults:      DefaultMaxResults,
		FallbackResults: DefaultFallbackResults,
	}
}

// ProgressFunc is told the completed fraction and the dimension about to be
// searched.
type ProgressFunc func(fraction float64, dim Dimension)

// Result is the outcome of a full solve.
type Result struct {
	Candidates []Candidate
	Dimensions []Dimension
	// Evaluated counts every column order scored across all dimensions.
	Evaluated int
}

// Solve runs the search over every dimension and returns the selected
// candidates, best first. A prime length returns an empty list and no error.
func Solve(ciphertext string, opts Options, onProgress ProgressFunc) ([]Candidate, error) {
	res, err := SolveDetailed(ciphertext, opts, onProgress)
	if err != nil {
		return nil, err
	}
	return res.Candidates, nil
}

// SolveDetailed is Solve with search statistics.
func SolveDetailed(ciphertext string, opts Options, onProgress ProgressFunc) (Result, error) {
	if err := Validate(ciphertext); err != nil {
		return Result{}, err
	}
	dims := Dimensions(len(ciphertext))
	res := Result{Candidates: []Candidate{}, Dimensions: dims}
	if len(dims) == 0 {
		return res, nil
	}

	var pool []Candidate
	for i, dim := range dims {
		if onProgress != nil {
			onProgress(float64(i)/float64(len(dims)), dim)
		}
		cands, n, err := solveDimension(ciphertext, dim, opts, nil)
		if err != nil {
			return Result{}, err
		}
		res.Evaluated += n
		pool = append(pool, cands...)
	}
	res.Candidates = Select(pool, opts)
	return res, nil
}

// SolveDimension scores every candidate order for one grid shape and returns
// the best PerDimension readings. progress receives the fraction of orders
// processed so far.
func SolveDimension(ciphertext string, dim Dimension, opts Options, progress func(float64)) ([]Candidate, error) {
	cands, _, err := solveDimension(ciphertext, dim, opts, progress)
	return cands, err
}

func solveDimension(ciphertext string, dim Dimension, opts Options, progress func(float64)) ([]Candidate, int, error) {
	g, err := FillGrid(ciphertext, dim.Rows, dim.Cols)
	if err != nil {
		return nil, 0, err
	}

	var orders []ColumnOrder
	if dim.Cols > opts.Search.ExhaustiveLimit && opts.Search.Strategy == StrategyClimb {
		orders = climbOrders(g, opts.Search, opts.Weights)
	} else {
		orders = Orders(dim.Cols, opts.Search)
	}

	cands := make([]Candidate, 0, len(orders))
	for i, order := range orders {
		text := ReadGrid(g, order)
		s := Score(text)
		cands = append(cands, Candidate{
			Dimension:     dim,
			ColumnOrder:   order,
			DecryptedText: text,
			Scores:        s,
			Score:         opts.Weights.Total(s),
		})
		if progress != nil {
			progress(float64(i+1) / float64(len(orders)))
		}
	}

	rank(cands)
	if opts.PerDimension > 0 && len(cands) > opts.PerDimension {
		cands = cands[:opts.PerDimension]
	}
	return cands, len(orders), nil
}

// Select ranks pool and applies the two-tier cut. When the top score clears
// SignalThreshold, candidates within RelativeWindow of it are kept, capped at
// MaxResults. Otherwise the best FallbackResults are returned regardless of
// score.
func Select(pool []Candidate, opts Options) []Candidate {
	if len(pool) == 0 {
		return []Candidate{}
	}
	ranked := make([]Candidate, len(pool))
	copy(ranked, pool)
	rank(ranked)

	top := ranked[0].Score
	if top > opts.SignalThreshold {
		cut := top - opts.RelativeWindow
		kept := ranked[:0]
		for _, c := range ranked {
			if c.Score >= cut {
				kept = append(kept, c)
			}
		}
		return truncate(kept, opts.MaxResults)
	}
	return truncate(ranked, opts.FallbackResults)
}

func rank(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
}

func truncate(cands []Candidate, n int) []Candidate {
	if n > 0 && len(cands) > n {
		return cands[:n]
	}
	return cands
}

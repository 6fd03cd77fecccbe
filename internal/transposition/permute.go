package transposition

import (
	"math/rand/v2"
)

// Strategy selects how wide grids are sampled.
type Strategy string

const (
	// StrategyRandom draws independent Fisher-Yates shuffles.
	StrategyRandom Strategy = "random"
	// StrategyClimb hill-climbs over column swaps, scoring each step.
	StrategyClimb Strategy = "climb"
)

// Search defaults.
const (
	DefaultExhaustiveLimit = 7
	DefaultSamples         = 100
)

// SearchOptions bounds the column orders tried for one grid.
type SearchOptions struct {
	// ExhaustiveLimit is the widest grid searched exhaustively.
	ExhaustiveLimit int
	// Samples caps the orders tried for wider grids, identity included.
	Samples  int
	Strategy Strategy
	// Rand drives sampling. Nil uses the global source.
	Rand *rand.Rand
}

// DefaultSearchOptions returns exhaustive search up to 7 columns and 100
// random samples beyond.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		ExhaustiveLimit: DefaultExhaustiveLimit,
		Samples:         DefaultSamples,
		Strategy:        StrategyRandom,
	}
}

// Orders returns the candidate column orders for a grid with cols columns.
// Up to ExhaustiveLimit columns every permutation is returned in
// lexicographic order. Wider grids get Samples orders: identity first, then
// independent random shuffles, which may repeat.
func Orders(cols int, opts SearchOptions) []ColumnOrder {
	if cols <= opts.ExhaustiveLimit {
		return Permutations(cols)
	}
	samples := max(opts.Samples, 1)
	orders := make([]ColumnOrder, 0, samples)
	orders = append(orders, Identity(cols))
	for len(orders) < samples {
		orders = append(orders, shuffled(cols, opts.Rand))
	}
	return orders
}

// Permutations returns all n! orderings of [0, n) in lexicographic order.
func Permutations(n int) []ColumnOrder {
	total := 1
	for i := 2; i <= n; i++ {
		total *= i
	}
	perms := make([]ColumnOrder, 0, total)
	cur := Identity(n)
	for {
		perms = append(perms, cur.clone())
		if !nextPermutation(cur) {
			return perms
		}
	}
}

// nextPermutation advances p to its lexicographic successor in place and
// reports false once p is the last permutation.
func nextPermutation(p ColumnOrder) bool {
	i := len(p) - 2
	for i >= 0 && p[i] >= p[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := len(p) - 1
	for p[j] <= p[i] {
		j--
	}
	p[i], p[j] = p[j], p[i]
	for l, r := i+1, len(p)-1; l < r; l, r = l+1, r-1 {
		p[l], p[r] = p[r], p[l]
	}
	return true
}

func shuffled(n int, r *rand.Rand) ColumnOrder {
	o := Identity(n)
	for j := n - 1; j > 0; j-- {
		k := intN(r, j+1)
		o[j], o[k] = o[k], o[j]
	}
	return o
}

func intN(r *rand.Rand, n int) int {
	if r == nil {
		return rand.IntN(n)
	}
	return r.IntN(n)
}

// climbOrders collects distinct orders visited by first-improvement hill
// climbing from random starts, with the n-gram total as the objective. The
// identity order is always the first element.
func climbOrders(g Grid, opts SearchOptions, w Weights) []ColumnOrder {
	cols := g.Cols()
	samples := max(opts.Samples, 1)
	seen := make(map[string]struct{}, samples)
	orders := make([]ColumnOrder, 0, samples)
	add := func(o ColumnOrder) {
		k := o.String()
		if _, ok := seen[k]; ok || len(orders) >= samples {
			return
		}
		seen[k] = struct{}{}
		orders = append(orders, o.clone())
	}
	add(Identity(cols))

	buf := make([]byte, 0, len(g.cells))
	score := func(o ColumnOrder) float64 {
		buf = g.readInto(buf, o)
		return w.Total(Score(string(buf)))
	}

	for restarts := 0; len(orders) < samples && restarts < samples; restarts++ {
		cur := shuffled(cols, opts.Rand)
		best := score(cur)
		add(cur)
		for improved := true; improved && len(orders) < samples; {
			improved = false
		scan:
			for i := 0; i < cols-1; i++ {
				for j := i + 1; j < cols; j++ {
					cur[i], cur[j] = cur[j], cur[i]
					if s := score(cur); s > best {
						best = s
						add(cur)
						improved = true
						break scan
					}
					cur[i], cur[j] = cur[j], cur[i]
				}
			}
		}
	}
	return orders
}

// Package solver wires configuration, the n-gram search, the refinement
// cache and the oracle into a single Engine whose Run returns a Report.
//
// A Report carries the ranked candidates, the grid shapes searched, a run ID,
// a status ("ok" or "no_dimensions") and timing for the search and
// refinement phases. Output writers and the HTTP server consume it.
package solver

package solver

import (
	"github.com/dshills/colsolve/internal/refine"
	"github.com/dshills/colsolve/internal/transposition"
)

// Status describes how a run ended.
type Status string

const (
	StatusOK           Status = "ok"
	StatusNoDimensions Status = "no_dimensions"
)

// NoDimensionsMessage explains an empty result for a prime length.
const NoDimensionsMessage = "ciphertext length is prime; no rectangular factorization exists"

// Timing contains performance metrics.
type Timing struct {
	SearchMs int64 `json:"searchMs" yaml:"searchMs"`
	RefineMs int64 `json:"refineMs" yaml:"refineMs"`
	TotalMs  int64 `json:"totalMs" yaml:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool       string                    `json:"tool" yaml:"tool"`
	Version    string                    `json:"version" yaml:"version"`
	RunID      string                    `json:"runId" yaml:"runId"`
	CipherText string                    `json:"cipherText" yaml:"cipherText"`
	Length     int                       `json:"length" yaml:"length"`
	Status     Status                    `json:"status" yaml:"status"`
	Message    string                    `json:"message,omitempty" yaml:"message,omitempty"`
	Dimensions []transposition.Dimension `json:"dimensions" yaml:"dimensions"`
	Evaluated  int                       `json:"evaluated" yaml:"evaluated"`
	Candidates []transposition.Candidate `json:"candidates" yaml:"candidates"`
	Oracle     string                    `json:"oracle,omitempty" yaml:"oracle,omitempty"`
	Refinement *refine.Summary           `json:"refinement,omitempty" yaml:"refinement,omitempty"`
	Timing     Timing                    `json:"timing" yaml:"timing"`
}

// Best returns the top candidate, if any.
func (r *Report) Best() (transposition.Candidate, bool) {
	if r == nil || len(r.Candidates) == 0 {
		return transposition.Candidate{}, false
	}
	return r.Candidates[0], true
}

// Refined counts candidates that carry an oracle suggestion.
func (r *Report) Refined() int {
	n := 0
	for _, c := range r.Candidates {
		if c.RefinedText != "" {
			n++
		}
	}
	return n
}

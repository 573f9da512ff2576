// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package align scores pairs of variant sequences for the merge
// pipeline's sequence gate: a deterministic affine-gap score
// normalized to [0,1], a k-mer Jaccard fallback past a configured
// length limit, and an optional external-aligner backend for callers
// who want to delegate scoring to a BLAST-family tool rather than the
// in-process scorer.
package align

import (
	"github.com/czakarian/svpop/internal/svparam"
)

// Scorer computes a normalized [0,1] sequence match proportion between
// two calls' sequences, falling back to a k-mer Jaccard index once
// either sequence exceeds the configured map limit, and reporting 0
// for any missing sequence.
type Scorer struct {
	p    svparam.AlignParams
	fast *Jaccard
	slow *Affine
}

// NewScorer builds the default in-process scorer for p.
func NewScorer(p svparam.AlignParams) *Scorer {
	return &Scorer{
		p:    p,
		fast: NewJaccard(p.JaccardK),
		slow: NewAffine(p.Match, p.Mismatch, p.GapOpen, p.GapExtend),
	}
}

// Score implements resolve.Aligner.
func (s *Scorer) Score(a, b string) (float64, error) {
	if a == "" || b == "" {
		return 0, nil
	}
	if s.p.MapLimit != nil && (len(a) > *s.p.MapLimit || len(b) > *s.p.MapLimit) {
		return s.fast.Score(a, b), nil
	}
	raw := s.slow.Score(a, b)
	denom := s.p.Match * float64(minLen(len(a), len(b)))
	if denom <= 0 {
		return 0, nil
	}
	prop := raw / denom
	if prop < 0 {
		prop = 0
	}
	if prop > 1 {
		prop = 1
	}
	return prop, nil
}

func minLen(a, b int) int {
	if a < b {
		return a
	}
	return b
}

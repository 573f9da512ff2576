// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coverage builds an optional allele-count coverage report
// over the finalized merged table: for every base covered by at least
// one lead variant, the highest merge_ac touching that base, bucketed
// into a genome-wide histogram. Per-base facts are folded into one
// github.com/biogo/store/step.Vector per chromosome with a custom
// step.Equaler element.
package coverage

import (
	"fmt"
	"sort"

	"github.com/biogo/store/step"

	"github.com/czakarian/svpop/internal/finalize"
)

// acStep is a step.Vector element carrying the highest merge_ac value
// observed covering a base so far.
type acStep struct {
	ac int
}

func (a acStep) Equal(e step.Equaler) bool { return a.ac == e.(acStep).ac }

// Histogram maps a merge_ac value to the number of bases in the
// callset whose maximum covering lead has that allele count.
type Histogram map[int]int

// Build folds every row's [pos, effectiveEnd) span into a per-
// chromosome step.Vector keyed by the highest merge_ac covering each
// base, then reduces every chromosome's vector into one genome-wide
// histogram.
func Build(rows []finalize.Row) (Histogram, error) {
	vectors := make(map[string]*step.Vector)

	for _, r := range rows {
		v, ok := vectors[r.Chrom]
		if !ok {
			var err error
			v, err = step.New(0, 1, acStep{})
			if err != nil {
				return nil, fmt.Errorf("coverage: %w", err)
			}
			v.Relaxed = true
			vectors[r.Chrom] = v
		}

		end := r.EffectiveEnd()
		if end <= r.Pos {
			continue
		}
		err := v.ApplyRange(r.Pos, end, func(e step.Equaler) step.Equaler {
			cur := e.(acStep)
			if r.Summary.MergeAC > cur.ac {
				cur.ac = r.Summary.MergeAC
			}
			return cur
		})
		if err != nil {
			return nil, fmt.Errorf("coverage: %s: %w", r.Chrom, err)
		}
	}

	hist := make(Histogram)
	for _, v := range vectors {
		v.Do(func(start, end int, e step.Equaler) {
			a := e.(acStep)
			if a.ac == 0 {
				return
			}
			hist[a.ac] += end - start
		})
	}
	return hist, nil
}

// Levels returns hist's allele-count keys in ascending order, for
// stable report formatting.
func (h Histogram) Levels() []int {
	ls := make([]int, 0, len(h))
	for ac := range h {
		ls = append(ls, ac)
	}
	sort.Ints(ls)
	return ls
}

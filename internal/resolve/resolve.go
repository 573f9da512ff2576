// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolve implements the overlap resolver: for each
// independent packet the partitioner emits, compute
// reciprocal-overlap and size+offset candidate metrics, gate them by
// the configured thresholds and optional sequence alignment, and pick
// the single nearest match per source and per target ID. Packets are
// dispatched to a bounded worker pool with fail-fast cancellation via
// golang.org/x/sync/errgroup.
package resolve

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/czakarian/svpop/internal/match"
	"github.com/czakarian/svpop/internal/partition"
	"github.com/czakarian/svpop/internal/svparam"
	"github.com/czakarian/svpop/internal/svpoperr"
	"github.com/czakarian/svpop/internal/variant"
)

// Aligner scores the sequence similarity of two calls as a proportion
// in [0,1]. internal/align's Scorer and External types satisfy this
// without resolve needing to import align, avoiding a dependency cycle
// between the two packages.
type Aligner interface {
	Score(a, b string) (float64, error)
}

// Index looks up a loaded or accumulated row by ID, the shape both
// svstore.Store and a plain map satisfy. The source Index passed to
// All is keyed by RowKey (the running merged table spans multiple
// samples, so neither Record.ID nor SupportID alone is unique); the
// target Index is keyed by the incoming sample's Record.ID.
type Index interface {
	Get(id string) (variant.Merged, bool, error)
}

// candidate is one scored, not-yet-gated pair.
type candidate struct {
	source, target variant.Merged
	offset         int
	ro             float64
	szro           float64
	offsz          float64
	match          *float64
}

// All runs the resolver over every packet, returning the concatenated
// support table. Packets are independent pure functions of their two
// input slices; threads bounds how many run at once. The
// first packet error cancels the remaining work and is returned; no
// partial result is returned on error.
func All(ctx context.Context, packets []partition.Packet, source, target Index, p svparam.Params, aligner Aligner, threads int) ([]match.Result, error) {
	out := make([][]match.Result, len(packets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)

	for i, pkt := range packets {
		i, pkt := i, pkt
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			sourceRows, err := lookupAll(source, pkt.SourceIDs)
			if err != nil {
				return fmt.Errorf("resolve: packet %s: %w", pkt.Chrom, err)
			}
			targetRows, err := lookupAll(target, pkt.TargetIDs)
			if err != nil {
				return fmt.Errorf("resolve: packet %s: %w", pkt.Chrom, err)
			}
			res, err := Packet(sourceRows, targetRows, p, aligner)
			if err != nil {
				return fmt.Errorf("resolve: packet %s: %w: %v", pkt.Chrom, svpoperr.ErrRuntime, err)
			}
			out[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []match.Result
	for _, r := range out {
		all = append(all, r...)
	}
	return all, nil
}

func lookupAll(idx Index, ids []string) ([]variant.Merged, error) {
	rows := make([]variant.Merged, 0, len(ids))
	for _, id := range ids {
		m, ok, err := idx.Get(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("id %q not found", id)
		}
		rows = append(rows, m)
	}
	return rows, nil
}

// Packet resolves one packet: compute every
// candidate pair's metrics, gate them by ref/alt equality, the active
// phase thresholds and optional sequence alignment, then run nearest
// selection separately for the RO phase and the size+offset phase,
// each consuming the IDs the other phase already matched.
func Packet(source, target []variant.Merged, p svparam.Params, aligner Aligner) ([]match.Result, error) {
	usedSource := make(map[string]bool)
	usedTarget := make(map[string]bool)
	var results []match.Result

	if p.ROMin != nil {
		res, err := runPhase(source, target, usedSource, usedTarget, p, aligner, func(c candidate) bool {
			return c.ro >= *p.ROMin
		})
		if err != nil {
			return nil, err
		}
		results = append(results, res...)
	}

	if p.SZROMin != nil && p.OffsetMax != nil {
		res, err := runPhase(source, target, usedSource, usedTarget, p, aligner, func(c candidate) bool {
			return c.offset <= *p.OffsetMax && c.szro >= *p.SZROMin
		})
		if err != nil {
			return nil, err
		}
		results = append(results, res...)
	}

	return results, nil
}

func runPhase(source, target []variant.Merged, usedSource, usedTarget map[string]bool, p svparam.Params, aligner Aligner, keep func(candidate) bool) ([]match.Result, error) {
	var cands []candidate
	for _, s := range source {
		if usedSource[s.RowKey()] {
			continue
		}
		for _, t := range target {
			if usedTarget[t.ID] {
				continue
			}
			if s.Chrom != t.Chrom {
				continue
			}
			if p.MatchRef && s.Ref != t.Ref {
				continue
			}
			if p.MatchAlt && s.Alt != t.Alt {
				continue
			}

			c := scorePair(s, t)

			if p.MatchSeq {
				score, err := aligner.Score(s.Seq, t.Seq)
				if err != nil {
					return nil, err
				}
				c.match = &score
				if score < p.Align.ScoreProp {
					continue
				}
			}

			if !keep(c) {
				continue
			}
			cands = append(cands, c)
		}
	}

	return nearest(cands, usedSource, usedTarget), nil
}

func scorePair(s, t variant.Merged) candidate {
	posDiff := abs(s.Pos - t.Pos)
	endDiff := abs(s.End - t.End)
	offset := posDiff
	if endDiff < offset {
		offset = endDiff
	}

	overlap := min(s.End, t.End) - max(s.Pos, t.Pos)
	if overlap < 0 {
		overlap = 0
	}
	spanS := s.End - s.Pos
	spanT := t.End - t.Pos
	maxSpan := spanS
	if spanT > maxSpan {
		maxSpan = spanT
	}
	ro := 0.0
	if maxSpan > 0 {
		ro = float64(overlap) / float64(maxSpan)
	}

	minLen, maxLen := s.SVLen, t.SVLen
	if minLen > maxLen {
		minLen, maxLen = maxLen, minLen
	}
	szro := 0.0
	if maxLen > 0 {
		szro = float64(minLen) / float64(maxLen)
	} else if minLen == 0 && maxLen == 0 {
		szro = 1
	}

	maxSVLen := s.SVLen
	if t.SVLen > maxSVLen {
		maxSVLen = t.SVLen
	}
	offsz := 0.0
	if maxSVLen > 0 {
		offsz = float64(offset) / float64(maxSVLen)
	}

	return candidate{source: s, target: t, offset: offset, ro: ro, szro: szro, offsz: offsz}
}

// nearest applies the nearest-selection rule: sort
// candidates by the priority tuple (higher ro, lower offset, higher
// szro, higher match), with source RowKey then target ID as
// deterministic tie-breakers, then greedily accept the first
// candidate touching neither an already-consumed source nor target.
func nearest(cands []candidate, usedSource, usedTarget map[string]bool) []match.Result {
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.ro != b.ro {
			return a.ro > b.ro
		}
		if a.offset != b.offset {
			return a.offset < b.offset
		}
		if a.szro != b.szro {
			return a.szro > b.szro
		}
		am, bm := matchVal(a.match), matchVal(b.match)
		if am != bm {
			return am > bm
		}
		if ak, bk := a.source.RowKey(), b.source.RowKey(); ak != bk {
			return ak < bk
		}
		return a.target.ID < b.target.ID
	})

	var out []match.Result
	for _, c := range cands {
		if usedSource[c.source.RowKey()] || usedTarget[c.target.ID] {
			continue
		}
		usedSource[c.source.RowKey()] = true
		usedTarget[c.target.ID] = true
		out = append(out, match.Result{
			SourceID: c.source.RowKey(),
			TargetID: c.target.ID,
			Offset:   c.offset,
			RO:       c.ro,
			SZRO:     c.szro,
			Offsz:    c.offsz,
			Match:    c.match,
		})
	}
	return out
}

func matchVal(m *float64) float64 {
	if m == nil {
		return 0
	}
	return *m
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

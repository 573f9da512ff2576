// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package match implements the exact-key matcher: a linear merge-join
// between two tables already sorted by the composite key (chrom, pos,
// svlen, id), refined within each (chrom, pos, svlen) run by the
// caller-selected optional fields (ref, alt, seq).
package match

import (
	"sort"
	"strings"

	"github.com/czakarian/svpop/internal/svparam"
	"github.com/czakarian/svpop/internal/variant"
)

// Result is one row of a support table: the evidence linking a source
// (base) row to a target row, in the same schema the overlap resolver
// produces so the two phases' output can be concatenated directly.
// SourceID is the base row's RowKey; TargetID is the target row's
// Record.ID.
type Result struct {
	SourceID string
	TargetID string
	Offset   int
	RO       float64
	SZRO     float64
	Offsz    float64
	// Match is nil when sequence gating was not active for this
	// result; otherwise it holds the sequence match proportion.
	Match *float64
}

func one() *float64 { v := 1.0; return &v }

// Exact runs the merge-join over base and target, both
// already in (chrom, pos, svlen, id) order (svstore.Store.All's
// iteration order). Each base row and each target ID appears in
// at most one Result.
func Exact(base, target []variant.Merged, p svparam.Params) []Result {
	var out []Result
	i, j := 0, 0
	for i < len(base) && j < len(target) {
		c := comparePrimary(base[i].Record, target[j].Record)
		switch {
		case c < 0:
			i++
		case c > 0:
			j++
		default:
			iEnd := i
			for iEnd < len(base) && comparePrimary(base[iEnd].Record, base[i].Record) == 0 {
				iEnd++
			}
			jEnd := j
			for jEnd < len(target) && comparePrimary(target[jEnd].Record, target[j].Record) == 0 {
				jEnd++
			}
			out = append(out, matchGroup(base[i:iEnd], target[j:jEnd], p)...)
			i, j = iEnd, jEnd
		}
	}
	return out
}

// comparePrimary orders by the (chrom, pos, svlen) prefix of the
// composite sort key, the granularity at which the two-pointer scan
// advances.
func comparePrimary(a, b variant.Record) int {
	if a.Chrom != b.Chrom {
		if a.Chrom < b.Chrom {
			return -1
		}
		return 1
	}
	if a.Pos != b.Pos {
		return a.Pos - b.Pos
	}
	return a.SVLen - b.SVLen
}

// matchGroup pairs rows within one (chrom, pos, svlen) run by exact
// extended key, one base row to one target row, deterministically by
// ascending RowKey on the base side and ascending ID on the target
// side when several rows share an extended key.
//
// base rows come from the running merged table and are identified by
// RowKey; Record.ID is only unique within the single sample that
// produced a row, and SupportID is shared between a lead and its
// admitted support rows. target rows come from the one sample being
// folded in this call, so their Record.ID is safe to use directly.
func matchGroup(base, target []variant.Merged, p svparam.Params) []Result {
	sortByRowKey(base)
	sortByID(target)

	byKey := make(map[string][]int, len(target))
	for j, t := range target {
		k := extendedKey(t.Record, p)
		byKey[k] = append(byKey[k], j)
	}

	var out []Result
	for _, s := range base {
		k := extendedKey(s.Record, p)
		cands := byKey[k]
		if len(cands) == 0 {
			continue
		}
		j := cands[0]
		byKey[k] = cands[1:]

		var m *float64
		if p.MatchSeq {
			m = one()
		}
		out = append(out, Result{
			SourceID: s.RowKey(),
			TargetID: target[j].ID,
			Offset:   0,
			RO:       1,
			SZRO:     1,
			Offsz:    0,
			Match:    m,
		})
	}
	return out
}

func sortByID(rows []variant.Merged) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
}

func sortByRowKey(rows []variant.Merged) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].RowKey() < rows[j].RowKey() })
}

// extendedKey completes the composite key within a (chrom, pos, svlen)
// run: ref/alt/seq participate exactly when the corresponding match
// flag is set. With no match flags set every row in the run shares
// one key, so pairing falls entirely to RowKey order (base) and ID
// order (target).
func extendedKey(r variant.Record, p svparam.Params) string {
	var b strings.Builder
	if p.MatchRef {
		b.WriteString(r.Ref)
		b.WriteByte(0)
	}
	if p.MatchAlt {
		b.WriteString(r.Alt)
		b.WriteByte(0)
	}
	if p.MatchSeq {
		b.WriteString(r.Seq)
		b.WriteByte(0)
	}
	return b.String()
}

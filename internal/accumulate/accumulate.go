// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package accumulate implements the incremental N-way accumulator:
// fold each sample's three-phase support table into the running
// merged table, renaming evidence columns into the merged schema,
// deduplicating new support rows, admitting unmatched rows as new
// (possibly re-versioned) leads, and expanding the searchable base
// set when configured.
package accumulate

import (
	"context"
	"fmt"
	"sort"

	"github.com/czakarian/svpop/internal/match"
	"github.com/czakarian/svpop/internal/partition"
	"github.com/czakarian/svpop/internal/resolve"
	"github.com/czakarian/svpop/internal/svparam"
	"github.com/czakarian/svpop/internal/svpoperr"
	"github.com/czakarian/svpop/internal/svstore"
	"github.com/czakarian/svpop/internal/variant"
	"github.com/czakarian/svpop/internal/versionid"
)

// Accumulator owns the running merged table (and, when Expand is
// off, the side list of support rows not yet searchable) across the
// strictly sequential per-sample fold.
type Accumulator struct {
	p       svparam.Params
	aligner resolve.Aligner
	threads int
	workDir string

	m    *svstore.Store
	b    *svstore.Store
	seen versionid.Seen

	sampleOrder []string
}

// New creates an Accumulator. workDir backs the merged table's and the
// side list's temporary stores, the same directory svmerge's -work
// flag points everything else at.
func New(p svparam.Params, aligner resolve.Aligner, threads int, workDir string) (*Accumulator, error) {
	b, err := svstore.Open(workDir, "side")
	if err != nil {
		return nil, fmt.Errorf("accumulate: %w", err)
	}
	return &Accumulator{p: p, aligner: aligner, threads: threads, workDir: workDir, b: b, seen: versionid.Seen{}}, nil
}

// Seed initializes the merged table from the first sample: every row
// becomes a self-supporting lead. The sample's store is copied, not
// adopted; it stays pristine for the finalizer's re-hydration join.
func (ac *Accumulator) Seed(sample string, store *svstore.Store) error {
	m, err := svstore.Open(ac.workDir, "merged")
	if err != nil {
		return fmt.Errorf("accumulate: seed: %w", err)
	}
	rows, err := store.All()
	if err != nil {
		m.Close()
		return fmt.Errorf("accumulate: seed: %w", err)
	}
	for _, r := range rows {
		if err := m.Put(r); err != nil {
			m.Close()
			return fmt.Errorf("accumulate: seed: %w", err)
		}
		ac.seen[r.ID] = true
	}
	ac.m = m
	ac.sampleOrder = append(ac.sampleOrder, sample)
	return nil
}

// Fold merges one subsequent sample into the running merged table.
func (ac *Accumulator) Fold(ctx context.Context, sample string, store *svstore.Store) error {
	mRows, err := ac.m.All()
	if err != nil {
		return fmt.Errorf("accumulate[%s]: %w", sample, err)
	}
	sRows, err := store.All()
	if err != nil {
		return fmt.Errorf("accumulate[%s]: %w", sample, err)
	}

	results, err := ac.threePhase(ctx, mRows, sRows)
	if err != nil {
		return fmt.Errorf("accumulate[%s]: %w", sample, err)
	}

	// mByRowKey indexes the running merged table by RowKey, the only
	// per-row identifier: two different samples can independently
	// assign the same Record.ID to unrelated calls, and with expansion
	// a lead shares its SupportID with every support row admitted
	// under it, so either alone would collapse distinct rows onto one
	// map entry. sByID indexes the one sample being folded in this
	// call, where Record.ID is safe: the loader enforces per-sample
	// uniqueness.
	mByRowKey := indexByRowKey(mRows)
	sByID := indexByID(sRows)

	T := make([]variant.Merged, 0, len(results))
	matchedS := make(map[string]bool, len(results))
	for _, r := range results {
		matched, ok := mByRowKey[r.SourceID]
		if !ok {
			return fmt.Errorf("accumulate[%s]: %w: support row references unknown base row %q", sample, svpoperr.ErrInvariant, r.SourceID)
		}
		row, ok := sByID[r.TargetID]
		if !ok {
			return fmt.Errorf("accumulate[%s]: %w: support row references unknown target %q", sample, svpoperr.ErrInvariant, r.TargetID)
		}
		// The new row inherits the matched row's lead ID; its
		// support_sample records the sample of the row it actually
		// matched, which with expansion may be a support row rather
		// than the lead itself.
		row.Support = variant.Support{
			Sample:        sample,
			SupportID:     matched.SupportID,
			SupportSample: matched.Sample,
			SupportOffset: r.Offset,
			SupportRO:     r.RO,
			SupportSZRO:   r.SZRO,
			SupportOffsz:  r.Offsz,
			SupportMatch:  matchSentinel(r.Match),
		}
		T = append(T, row)
		matchedS[r.TargetID] = true
	}

	T = dedupT(T)

	dest := ac.m
	if !ac.p.Expand {
		dest = ac.b
	}
	for _, row := range T {
		if err := dest.Put(row); err != nil {
			return fmt.Errorf("accumulate[%s]: %w", sample, err)
		}
	}

	for _, row := range sRows {
		if matchedS[row.ID] {
			continue
		}
		// The new lead's Record.ID is left untouched: it is the join
		// key the finalizer uses against the original per-sample
		// table. Only the support_id (the column that must be
		// globally unique) gets the versioned value.
		leadID, err := versionid.Resolve(row.ID, ac.seen)
		if err != nil {
			return fmt.Errorf("accumulate[%s]: %w", sample, err)
		}
		ac.seen[leadID] = true
		row.Support = variant.Support{
			Sample:        sample,
			SupportID:     leadID,
			SupportSample: sample,
			SupportOffset: -1,
			SupportRO:     -1,
			SupportSZRO:   -1,
			SupportOffsz:  -1,
			SupportMatch:  -1,
		}
		if err := ac.m.Put(row); err != nil {
			return fmt.Errorf("accumulate[%s]: %w", sample, err)
		}
	}

	ac.sampleOrder = append(ac.sampleOrder, sample)
	return nil
}

// Finish folds the side list (if any rows were kept there) into the
// merged table and returns it along with the canonical sample order.
func (ac *Accumulator) Finish() (*svstore.Store, []string, error) {
	if err := ac.b.Iterate(func(m variant.Merged) error {
		return ac.m.Put(m)
	}); err != nil {
		return nil, nil, fmt.Errorf("accumulate: finish: %w", err)
	}
	if err := ac.b.Close(); err != nil {
		return nil, nil, fmt.Errorf("accumulate: finish: %w", err)
	}
	return ac.m, ac.sampleOrder, nil
}

// threePhase runs the exact matcher, then the RO and size+offset
// phases (via the partitioner and resolver) over whatever the exact
// matcher left unmatched, per chromosome.
func (ac *Accumulator) threePhase(ctx context.Context, mRows, sRows []variant.Merged) ([]match.Result, error) {
	exact := match.Exact(mRows, sRows, ac.p)

	usedM := make(map[string]bool, len(exact))
	usedS := make(map[string]bool, len(exact))
	for _, r := range exact {
		usedM[r.SourceID] = true
		usedS[r.TargetID] = true
	}

	if ac.p.ROMin == nil && ac.p.SZROMin == nil {
		return exact, nil
	}

	remM := excludingByRowKey(mRows, usedM)
	remS := excluding(sRows, usedS)

	byChrom := make(map[string][]variant.Merged)
	for _, r := range remM {
		byChrom[r.Chrom] = append(byChrom[r.Chrom], r)
	}
	sByChrom := make(map[string][]variant.Merged)
	for _, r := range remS {
		sByChrom[r.Chrom] = append(sByChrom[r.Chrom], r)
	}

	flank := partition.Flank(ac.p.OffsetMax)
	var packets []partition.Packet
	for chrom, targets := range sByChrom {
		packets = append(packets, partition.Chromosome(chrom, byChrom[chrom], targets, flank)...)
	}
	sort.Slice(packets, func(i, j int) bool { return packets[i].Chrom < packets[j].Chrom })

	source := mapIndex(indexByRowKey(remM))
	target := mapIndex(indexByID(remS))

	resolved, err := resolve.All(ctx, packets, source, target, ac.p, ac.aligner, ac.threads)
	if err != nil {
		return nil, err
	}

	return append(exact, resolved...), nil
}

func indexByID(rows []variant.Merged) map[string]variant.Merged {
	m := make(map[string]variant.Merged, len(rows))
	for _, r := range rows {
		m[r.ID] = r
	}
	return m
}

// indexByRowKey indexes rows from the running merged table by RowKey
// rather than Record.ID or SupportID; see mByRowKey in Fold.
func indexByRowKey(rows []variant.Merged) map[string]variant.Merged {
	m := make(map[string]variant.Merged, len(rows))
	for _, r := range rows {
		m[r.RowKey()] = r
	}
	return m
}

func excluding(rows []variant.Merged, used map[string]bool) []variant.Merged {
	out := make([]variant.Merged, 0, len(rows))
	for _, r := range rows {
		if !used[r.ID] {
			out = append(out, r)
		}
	}
	return out
}

func excludingByRowKey(rows []variant.Merged, used map[string]bool) []variant.Merged {
	out := make([]variant.Merged, 0, len(rows))
	for _, r := range rows {
		if !used[r.RowKey()] {
			out = append(out, r)
		}
	}
	return out
}

// mapIndex adapts a plain map[string]variant.Merged to resolve.Index.
type mapIndex map[string]variant.Merged

func (m mapIndex) Get(id string) (variant.Merged, bool, error) {
	v, ok := m[id]
	return v, ok, nil
}

// dedupT sorts support rows by (ro desc, offset asc, szro desc,
// match desc) and keeps the first record per new ID.
func dedupT(rows []variant.Merged) []variant.Merged {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.SupportRO != b.SupportRO {
			return a.SupportRO > b.SupportRO
		}
		if a.SupportOffset != b.SupportOffset {
			return a.SupportOffset < b.SupportOffset
		}
		if a.SupportSZRO != b.SupportSZRO {
			return a.SupportSZRO > b.SupportSZRO
		}
		return a.SupportMatch > b.SupportMatch
	})
	seen := make(map[string]bool, len(rows))
	out := rows[:0]
	for _, r := range rows {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}

func matchSentinel(m *float64) float64 {
	if m == nil {
		return -1
	}
	return *m
}

// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package finalize assembles the output callset: pick one
// best lead per (lead variant x sample) pair, compute allele
// count/frequency, assemble per-sample comma-joined evidence
// summaries, and re-hydrate against the original per-sample tables to
// produce the final merged table.
package finalize

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/czakarian/svpop/internal/svpoperr"
	"github.com/czakarian/svpop/internal/svstore"
	"github.com/czakarian/svpop/internal/variant"
)

// Row is one finalized output record: the re-hydrated original call,
// its ID replaced by the lead's support_id, carrying the aggregated
// cross-sample summary.
type Row struct {
	variant.Record
	Summary   variant.Summary
	Discovery variant.Discovery
}

// Run finalizes the accumulator's finished running merged table m,
// given the canonical sample order and the original, never-mutated
// per-sample tables to re-hydrate against.
func Run(m *svstore.Store, sampleOrder []string, originals map[string]*svstore.Store) ([]Row, error) {
	rows, err := m.All()
	if err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}

	rank := make(map[string]int, len(sampleOrder))
	for i, s := range sampleOrder {
		rank[s] = i
	}
	for _, s := range rows {
		if _, ok := rank[s.Sample]; !ok {
			return nil, fmt.Errorf("finalize: %w: row %q has unrecognized sample %q", svpoperr.ErrInvariant, s.ID, s.Sample)
		}
	}

	// Normalize sentinels. math.Abs(-1) == 1 gives "self is a perfect
	// match" for free; support_offset only needs clamping since offset
	// has no negative sentinel meaning distinct from 0.
	for i := range rows {
		if rows[i].SupportOffset < 0 {
			rows[i].SupportOffset = 0
		}
		rows[i].SupportRO = math.Abs(rows[i].SupportRO)
		rows[i].SupportSZRO = math.Abs(rows[i].SupportSZRO)
		rows[i].SupportOffsz = math.Abs(rows[i].SupportOffsz)
		rows[i].SupportMatch = math.Abs(rows[i].SupportMatch)
	}

	// Stable sort by (sample asc, ro desc, offset asc, szro desc,
	// offsz desc, match desc).
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if rank[a.Sample] != rank[b.Sample] {
			return rank[a.Sample] < rank[b.Sample]
		}
		if a.SupportRO != b.SupportRO {
			return a.SupportRO > b.SupportRO
		}
		if a.SupportOffset != b.SupportOffset {
			return a.SupportOffset < b.SupportOffset
		}
		if a.SupportSZRO != b.SupportSZRO {
			return a.SupportSZRO > b.SupportSZRO
		}
		return a.SupportOffsz > b.SupportOffsz ||
			(a.SupportOffsz == b.SupportOffsz && a.SupportMatch > b.SupportMatch)
	})

	// Keep the first row per (support_id, sample, support_sample).
	seen := make(map[string]bool, len(rows))
	kept := rows[:0]
	for _, r := range rows {
		key := r.SupportID + "\x00" + r.Sample + "\x00" + r.SupportSample
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, r)
	}

	// Stable re-sort by (support_id, sample, support_sample) for
	// deterministic, contiguous per-lead grouping; samples compare in
	// the canonical sample order.
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.SupportID != b.SupportID {
			return a.SupportID < b.SupportID
		}
		if rank[a.Sample] != rank[b.Sample] {
			return rank[a.Sample] < rank[b.Sample]
		}
		return rank[a.SupportSample] < rank[b.SupportSample]
	})

	n := len(sampleOrder)
	var out []Row
	for i := 0; i < len(kept); {
		j := i
		for j < len(kept) && kept[j].SupportID == kept[i].SupportID {
			j++
		}
		group := kept[i:j]
		i = j

		row, err := summarize(group, n, originals)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Chrom != out[j].Chrom {
			return out[i].Chrom < out[j].Chrom
		}
		return out[i].Pos < out[j].Pos
	})

	if err := checkUniqueLeadIDs(out); err != nil {
		return nil, err
	}

	return out, nil
}

// summarize aggregates one support_id group into its summary row and
// re-hydrates the lead's original record.
func summarize(group []variant.Merged, n int, originals map[string]*svstore.Store) (Row, error) {
	primaryIdx := -1
	for i, r := range group {
		if r.Sample == r.SupportSample {
			primaryIdx = i
			break
		}
	}
	if primaryIdx < 0 {
		return Row{}, fmt.Errorf("finalize: %w: lead group %q has no self-supporting row", svpoperr.ErrInvariant, group[0].SupportID)
	}

	// merge_samples[0] must equal merge_src, so the lead's own row is
	// pinned first; everything else keeps the (support_id, sample,
	// support_sample) order.
	ordered := make([]variant.Merged, 0, len(group))
	ordered = append(ordered, group[primaryIdx])
	for i, r := range group {
		if i != primaryIdx {
			ordered = append(ordered, r)
		}
	}

	lead := ordered[0]
	summary := variant.Summary{
		LeadID:     lead.SupportID,
		MergeSrc:   lead.SupportSample,
		MergeSrcID: lead.ID,
		MergeAC:    len(ordered),
		MergeAF:    round4(float64(len(ordered)) / float64(n)),
	}
	for _, r := range ordered {
		summary.MergeSamples = append(summary.MergeSamples, r.Sample)
		summary.MergeVariants = append(summary.MergeVariants, r.ID)
		summary.MergeRO = append(summary.MergeRO, round2(r.SupportRO))
		summary.MergeOffset = append(summary.MergeOffset, r.SupportOffset)
		summary.MergeSZRO = append(summary.MergeSZRO, round2(r.SupportSZRO))
		summary.MergeOffsz = append(summary.MergeOffsz, round2(r.SupportOffsz))
		summary.MergeMatch = append(summary.MergeMatch, round2(r.SupportMatch))
	}

	store, ok := originals[summary.MergeSrc]
	if !ok {
		return Row{}, fmt.Errorf("finalize: %w: no original table loaded for sample %q", svpoperr.ErrInvariant, summary.MergeSrc)
	}
	orig, ok, err := store.Get(summary.MergeSrcID)
	if err != nil {
		return Row{}, fmt.Errorf("finalize: %w", err)
	}
	if !ok {
		return Row{}, fmt.Errorf("finalize: %w: original row %q not found in sample %q", svpoperr.ErrInvariant, summary.MergeSrcID, summary.MergeSrc)
	}

	rec := orig.Record
	rec.ID = summary.LeadID

	return Row{
		Record:    rec,
		Summary:   summary,
		Discovery: variant.Classify(summary),
	}, nil
}

func checkUniqueLeadIDs(rows []Row) error {
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if seen[r.ID] {
			return fmt.Errorf("finalize: %w: duplicate lead ID %q survived to the final table", svpoperr.ErrInvariant, r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}

func round2(v float64) float64 { return roundTo(v, 2) }
func round4(v float64) float64 { return roundTo(v, 4) }

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// JoinFloats formats a slice of already-rounded values as a
// comma-joined string with places decimal digits, the format
// MERGE_RO/MERGE_SZRO/etc. columns use.
func JoinFloats(vs []float64, places int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'f', places, 64)
	}
	return strings.Join(parts, ",")
}

// JoinInts formats a slice of integers as a comma-joined string, the
// format the MERGE_OFFSET column uses.
func JoinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// JoinStrings comma-joins a slice of strings, the format
// MERGE_SAMPLES/MERGE_VARIANTS use.
func JoinStrings(vs []string) string {
	return strings.Join(vs, ",")
}

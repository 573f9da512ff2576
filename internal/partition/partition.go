// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package partition splits a chromosome's unmatched rows into
// independent work packets, bounding the overlap resolver's
// combinatorial cost. Rows are inflated by the offset flank and
// coalesced through an interval tree; nodes carry mutable
// source/target ID sets and are deleted and reinserted as they
// coalesce.
package partition

import (
	"sort"

	"github.com/biogo/store/interval"

	"github.com/czakarian/svpop/internal/variant"
)

// Packet is an independent unit of pairwise resolution: every source
// ID reachable from every target ID in the packet by one or more
// inflated-interval overlaps, and vice versa.
// SourceIDs are RowKeys (sources are rows already in the running
// merged table, where neither Record.ID nor SupportID alone is
// unique); TargetIDs are the incoming sample's Record.IDs.
type Packet struct {
	Chrom     string
	SourceIDs []string
	TargetIDs []string
}

// Flank returns the inflation distance for interval placement:
// offsetMax+1 when an offset gate is configured, 1 otherwise.
func Flank(offsetMax *int) int {
	if offsetMax == nil {
		return 1
	}
	return *offsetMax + 1
}

// node is the tree payload: a coalesced interval and the source/target
// ID sets reachable within it. node implements interval.IntInterface.
type node struct {
	id         uintptr
	start, end int
	sourceIDs  map[string]bool
	targetIDs  map[string]bool
}

func (n *node) ID() uintptr { return n.id }

func (n *node) Range() interval.IntRange {
	return interval.IntRange{Start: n.start, End: n.end}
}

func (n *node) Overlap(b interval.IntRange) bool {
	return n.start < b.End && b.Start < n.end
}

// query is a throwaway IntInterface used only to drive IntTree.Get;
// its ID is never looked at.
type query struct {
	start, end int
}

func (q query) ID() uintptr { return 0 }
func (q query) Range() interval.IntRange {
	return interval.IntRange{Start: q.start, End: q.end}
}
func (q query) Overlap(b interval.IntRange) bool {
	return q.start < b.End && b.Start < q.end
}

func inflatedRange(r variant.Record, flank int) (int, int) {
	return r.Pos - flank, r.EffectiveEnd() + flank
}

// Chromosome partitions one chromosome's surviving source rows (the
// searchable base set) and target rows (the next sample), returning
// every packet whose target set is non-empty.
func Chromosome(chrom string, sources, targets []variant.Merged, flank int) []Packet {
	var tree interval.IntTree
	nodes := make(map[uintptr]*node, len(sources))
	var nextID uintptr

	for _, s := range sources {
		start, end := inflatedRange(s.Record, flank)
		n := &node{
			id:        nextID,
			start:     start,
			end:       end,
			sourceIDs: map[string]bool{s.RowKey(): true},
			targetIDs: map[string]bool{},
		}
		nextID++
		tree.Insert(n, true)
		nodes[n.id] = n
	}
	tree.AdjustRanges()

	for _, t := range targets {
		start, end := inflatedRange(t.Record, flank)
		q := query{start: start, end: end}
		hits := tree.Get(q)

		merged := &node{
			id:        nextID,
			start:     start,
			end:       end,
			sourceIDs: map[string]bool{},
			targetIDs: map[string]bool{t.ID: true},
		}
		nextID++

		for _, h := range hits {
			hn := h.(*node)
			for id := range hn.sourceIDs {
				merged.sourceIDs[id] = true
			}
			for id := range hn.targetIDs {
				merged.targetIDs[id] = true
			}
			if hn.start < merged.start {
				merged.start = hn.start
			}
			if hn.end > merged.end {
				merged.end = hn.end
			}
			tree.Delete(hn, true)
			delete(nodes, hn.id)
		}

		tree.Insert(merged, true)
		tree.AdjustRanges()
		nodes[merged.id] = merged
	}

	var packets []Packet
	for _, n := range nodes {
		if len(n.targetIDs) == 0 {
			continue
		}
		packets = append(packets, Packet{
			Chrom:     chrom,
			SourceIDs: sortedKeys(n.sourceIDs),
			TargetIDs: sortedKeys(n.targetIDs),
		})
	}

	// Packet dispatch order is not observable in the final table,
	// but a stable order here keeps reruns and tests reproducible
	// independent of Go's map iteration order.
	sort.Slice(packets, func(i, j int) bool {
		if len(packets[i].TargetIDs) == 0 || len(packets[j].TargetIDs) == 0 {
			return len(packets[i].TargetIDs) > len(packets[j].TargetIDs)
		}
		return packets[i].TargetIDs[0] < packets[j].TargetIDs[0]
	})
	return packets
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package match

import (
	"testing"

	"github.com/czakarian/svpop/internal/svparam"
	"github.com/czakarian/svpop/internal/variant"
)

// rec builds a row identified by id, self-supporting under the "base"
// sample; Exact's results identify base (source) rows by RowKey and
// target rows by Record.ID.
func rec(chrom string, pos, end, svlen int, id string, svtype variant.SVType) variant.Merged {
	return variant.Merged{
		Record:  variant.Record{Chrom: chrom, Pos: pos, End: end, SVLen: svlen, ID: id, SVType: svtype},
		Support: variant.Support{Sample: "base", SupportID: id, SupportSample: "base"},
	}
}

func TestExactMatchesIdenticalKeys(t *testing.T) {
	base := []variant.Merged{
		rec("chr1", 100, 200, 100, "base1", variant.DEL),
		rec("chr1", 500, 600, 100, "base2", variant.DEL),
	}
	target := []variant.Merged{
		rec("chr1", 100, 200, 100, "tgt1", variant.DEL),
	}
	results := Exact(base, target, svparam.Params{})
	if len(results) != 1 {
		t.Fatalf("Exact() returned %d results, want 1: %+v", len(results), results)
	}
	r := results[0]
	if r.SourceID != base[0].RowKey() || r.TargetID != "tgt1" {
		t.Fatalf("Exact() matched %+v, want base1/tgt1", r)
	}
	if r.Offset != 0 || r.RO != 1 || r.SZRO != 1 {
		t.Errorf("Exact() metrics = %+v, want offset=0 ro=1 szro=1", r)
	}
}

func TestExactIgnoresSVType(t *testing.T) {
	// SVTYPE is not part of the composite key: two calls coinciding on
	// (chrom, pos, svlen) match even when their types differ.
	base := []variant.Merged{rec("chr1", 100, 200, 100, "base1", variant.DEL)}
	target := []variant.Merged{rec("chr1", 100, 200, 100, "tgt1", variant.DUP)}
	results := Exact(base, target, svparam.Params{})
	if len(results) != 1 {
		t.Fatalf("Exact() across different SVType returned %+v, want 1 match", results)
	}
}

func TestExactGroupIsOneToOne(t *testing.T) {
	// Two base rows and two target rows share the same (chrom,pos,svlen)
	// key; each side should be consumed exactly once, paired off by ID order.
	base := []variant.Merged{
		rec("chr1", 100, 200, 100, "baseB", variant.DEL),
		rec("chr1", 100, 200, 100, "baseA", variant.DEL),
	}
	target := []variant.Merged{
		rec("chr1", 100, 200, 100, "tgtB", variant.DEL),
		rec("chr1", 100, 200, 100, "tgtA", variant.DEL),
	}
	results := Exact(base, target, svparam.Params{})
	if len(results) != 2 {
		t.Fatalf("Exact() returned %d results, want 2: %+v", len(results), results)
	}
	seenSource := map[string]bool{}
	seenTarget := map[string]bool{}
	for _, r := range results {
		if seenSource[r.SourceID] {
			t.Errorf("source ID %q matched more than once", r.SourceID)
		}
		seenSource[r.SourceID] = true
		if seenTarget[r.TargetID] {
			t.Errorf("target ID %q matched more than once", r.TargetID)
		}
		seenTarget[r.TargetID] = true
	}
}

func TestExactRespectsMatchRef(t *testing.T) {
	base := []variant.Merged{rec("chr1", 100, 200, 100, "base1", variant.DEL)}
	base[0].Ref = "A"
	target := []variant.Merged{rec("chr1", 100, 200, 100, "tgt1", variant.DEL)}
	target[0].Ref = "G"

	p := svparam.Params{MatchRef: true}
	if results := Exact(base, target, p); len(results) != 0 {
		t.Fatalf("Exact() with ref gating and mismatched ref = %+v, want none", results)
	}

	p = svparam.Params{}
	if results := Exact(base, target, p); len(results) != 1 {
		t.Fatalf("Exact() without ref gating = %+v, want 1 match", results)
	}
}

func TestExactSkipsNonOverlappingPositions(t *testing.T) {
	base := []variant.Merged{rec("chr1", 100, 200, 100, "base1", variant.DEL)}
	target := []variant.Merged{rec("chr1", 9000, 9100, 100, "tgt1", variant.DEL)}
	if results := Exact(base, target, svparam.Params{}); len(results) != 0 {
		t.Fatalf("Exact() across distant positions = %+v, want none", results)
	}
}

// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package partition

import (
	"reflect"
	"testing"

	"github.com/czakarian/svpop/internal/variant"
)

// rec builds a self-supporting row identified by id; Chromosome keys
// source rows by RowKey and target rows by Record.ID.
func rec(pos, end, svlen int, id string, svtype variant.SVType) variant.Merged {
	return variant.Merged{
		Record:  variant.Record{Chrom: "chr1", Pos: pos, End: end, SVLen: svlen, ID: id, SVType: svtype},
		Support: variant.Support{Sample: "base", SupportID: id, SupportSample: "base"},
	}
}

func TestFlank(t *testing.T) {
	if got := Flank(nil); got != 1 {
		t.Errorf("Flank(nil) = %d, want 1", got)
	}
	n := 500
	if got := Flank(&n); got != 501 {
		t.Errorf("Flank(500) = %d, want 501", got)
	}
}

func TestChromosomeCoalescesOverlappingSources(t *testing.T) {
	sources := []variant.Merged{
		rec(100, 200, 100, "s1", variant.DEL),
		rec(190, 300, 110, "s2", variant.DEL), // overlaps s1's inflated range
		rec(5000, 5100, 100, "s3", variant.DEL),
	}
	targets := []variant.Merged{
		rec(150, 250, 100, "t1", variant.DEL), // reaches both s1 and s2
	}

	packets := Chromosome("chr1", sources, targets, 1)
	if len(packets) != 1 {
		t.Fatalf("Chromosome() returned %d packets, want 1: %+v", len(packets), packets)
	}
	p := packets[0]
	wantSources := []string{sources[0].RowKey(), sources[1].RowKey()}
	if !reflect.DeepEqual(p.SourceIDs, wantSources) {
		t.Errorf("packet SourceIDs = %v, want %v", p.SourceIDs, wantSources)
	}
	wantTargets := []string{"t1"}
	if !reflect.DeepEqual(p.TargetIDs, wantTargets) {
		t.Errorf("packet TargetIDs = %v, want %v", p.TargetIDs, wantTargets)
	}
}

func TestChromosomeOmitsUntouchedSources(t *testing.T) {
	sources := []variant.Merged{
		rec(100, 200, 100, "s1", variant.DEL),
	}
	targets := []variant.Merged{
		rec(9000, 9100, 100, "t1", variant.DEL),
	}
	packets := Chromosome("chr1", sources, targets, 1)
	if len(packets) != 1 {
		t.Fatalf("Chromosome() returned %d packets, want 1", len(packets))
	}
	if len(packets[0].SourceIDs) != 0 {
		t.Errorf("packet with a non-overlapping target should have no sources, got %v", packets[0].SourceIDs)
	}
}

func TestChromosomeInsertionUsesInflatedFootprint(t *testing.T) {
	// An INS at pos=100 with svlen=300 has EffectiveEnd 400 (partitioner's
	// view), but its breakpoint End field is only 101. A target sitting at
	// 350-450 only overlaps the inflated footprint, not the raw End.
	sources := []variant.Merged{
		rec(100, 101, 300, "ins1", variant.INS),
	}
	targets := []variant.Merged{
		rec(350, 450, 50, "t1", variant.DEL),
	}
	packets := Chromosome("chr1", sources, targets, 1)
	if len(packets) != 1 || len(packets[0].SourceIDs) != 1 || packets[0].SourceIDs[0] != sources[0].RowKey() {
		t.Fatalf("Chromosome() with inflated INS footprint = %+v, want ins1 packet", packets)
	}
}

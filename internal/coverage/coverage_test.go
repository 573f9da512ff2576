// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coverage

import (
	"testing"

	"github.com/czakarian/svpop/internal/finalize"
	"github.com/czakarian/svpop/internal/variant"
)

func row(chrom string, pos, end, ac int) finalize.Row {
	return finalize.Row{
		Record:  variant.Record{Chrom: chrom, Pos: pos, End: end},
		Summary: variant.Summary{MergeAC: ac},
	}
}

func TestBuildSingleRowCoversItsSpan(t *testing.T) {
	hist, err := Build([]finalize.Row{row("chr1", 100, 200, 3)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := hist[3]; got != 100 {
		t.Errorf("hist[3] = %d, want 100 (200-100)", got)
	}
}

func TestBuildOverlapKeepsHighestAC(t *testing.T) {
	rows := []finalize.Row{
		row("chr1", 100, 300, 2),
		row("chr1", 200, 400, 5), // overlaps [200,300) with the AC=2 row
	}
	hist, err := Build(rows)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// [100,200): ac=2 only -> 100 bases
	// [200,300): both cover, higher ac=5 wins -> 100 bases
	// [300,400): ac=5 only -> 100 bases
	if hist[2] != 100 {
		t.Errorf("hist[2] = %d, want 100", hist[2])
	}
	if hist[5] != 200 {
		t.Errorf("hist[5] = %d, want 200 (overlap resolved to the higher AC, plus its own tail)", hist[5])
	}
}

func TestLevelsIsAscending(t *testing.T) {
	h := Histogram{5: 10, 1: 20, 3: 5}
	got := h.Levels()
	want := []int{1, 3, 5}
	for i, v := range want {
		if got[i] != v {
			t.Fatalf("Levels() = %v, want %v", got, want)
		}
	}
}

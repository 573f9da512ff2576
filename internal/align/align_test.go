// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package align

import (
	"testing"

	"github.com/czakarian/svpop/internal/svparam"
)

func TestJaccardIdenticalSequences(t *testing.T) {
	j := NewJaccard(3)
	if got := j.Score("ACGTACGT", "ACGTACGT"); got != 1 {
		t.Errorf("Score(identical) = %v, want 1", got)
	}
}

func TestJaccardDisjointSequences(t *testing.T) {
	j := NewJaccard(3)
	if got := j.Score("AAAAAA", "CCCCCC"); got != 0 {
		t.Errorf("Score(disjoint) = %v, want 0", got)
	}
}

func TestJaccardEmptyBoth(t *testing.T) {
	j := NewJaccard(3)
	if got := j.Score("", ""); got != 0 {
		t.Errorf("Score(\"\",\"\") = %v, want 0", got)
	}
}

func TestAffineIdenticalSequencesScoreHighest(t *testing.T) {
	af := NewAffine(2, -1, -4, -1)
	same := af.Score("ACGTACGTAA", "ACGTACGTAA")
	diff := af.Score("ACGTACGTAA", "TTTTTTTTTT")
	if same <= diff {
		t.Errorf("identical-sequence score %v should exceed unrelated-sequence score %v", same, diff)
	}
	// Every base matches, so the optimal alignment has no gaps: score
	// should be exactly match*len.
	if want := 2.0 * 10; same != want {
		t.Errorf("Score(identical, len 10) = %v, want %v", same, want)
	}
}

func TestAffineEmptyInput(t *testing.T) {
	af := NewAffine(2, -1, -4, -1)
	if got := af.Score("", "ACGT"); got != 0 {
		t.Errorf("Score(\"\", seq) = %v, want 0", got)
	}
}

func TestScorerFallsBackToJaccardPastMapLimit(t *testing.T) {
	limit := 4
	p := svparam.AlignParams{Match: 2, Mismatch: -1, GapOpen: -4, GapExtend: -1, MapLimit: &limit, JaccardK: 3}
	s := NewScorer(p)
	got, err := s.Score("ACGTACGT", "ACGTACGT") // length 8 > limit 4
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got != 1 {
		t.Errorf("Score(identical, past map limit) = %v, want 1 (Jaccard on identical input)", got)
	}
}

func TestScorerMissingSequenceScoresZero(t *testing.T) {
	p := svparam.AlignParams{Match: 2, Mismatch: -1, GapOpen: -4, GapExtend: -1, JaccardK: 9}
	s := NewScorer(p)
	got, err := s.Score("", "ACGT")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got != 0 {
		t.Errorf("Score(\"\", seq) = %v, want 0", got)
	}
}

func TestScorerIdenticalSequenceScoresOne(t *testing.T) {
	p := svparam.AlignParams{Match: 2, Mismatch: -1, GapOpen: -4, GapExtend: -1, JaccardK: 9}
	s := NewScorer(p)
	got, err := s.Score("ACGTACGTAA", "ACGTACGTAA")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got != 1 {
		t.Errorf("Score(identical) = %v, want 1", got)
	}
}

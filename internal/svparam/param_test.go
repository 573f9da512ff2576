// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package svparam

import "testing"

func TestParseThresholds(t *testing.T) {
	p, err := Parse("ro=50:offset=200")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.ROMin == nil || *p.ROMin != 0.5 {
		t.Fatalf("ROMin = %v, want 0.5", p.ROMin)
	}
	if p.OffsetMax == nil || *p.OffsetMax != 200 {
		t.Fatalf("OffsetMax = %v, want 200", p.OffsetMax)
	}
	if p.SZROMin != nil {
		t.Fatalf("SZROMin = %v, want nil", p.SZROMin)
	}
}

func TestParseSZROInheritsRO(t *testing.T) {
	p, err := Parse("szro=70:offset=500")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.ROMin == nil || *p.ROMin != 0.7 {
		t.Fatalf("ROMin = %v, want 0.7 (inherited from szro)", p.ROMin)
	}
	if p.SZROMin == nil || *p.SZROMin != 0.7 {
		t.Fatalf("SZROMin = %v, want 0.7", p.SZROMin)
	}
}

func TestParseSZROWithoutOffsetIsError(t *testing.T) {
	if _, err := Parse("szro=70"); err == nil {
		t.Fatal("Parse(\"szro=70\") without offset: want error, got nil")
	}
}

func TestParseRefAltExpand(t *testing.T) {
	p, err := Parse("ro=50:refalt:expand")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.MatchRef || !p.MatchAlt {
		t.Fatalf("refalt did not set both MatchRef and MatchAlt: %+v", p)
	}
	if !p.Expand {
		t.Fatalf("expand flag not set")
	}
}

func TestParseMatchDefaults(t *testing.T) {
	p, err := Parse("ro=50:match")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !p.MatchSeq || !p.ReadSeq {
		t.Fatalf("match token did not enable MatchSeq/ReadSeq: %+v", p)
	}
	if p.Align != defaultAlign {
		t.Fatalf("match with no args = %+v, want defaults %+v", p.Align, defaultAlign)
	}
}

func TestParseMatchOverrides(t *testing.T) {
	p, err := Parse("match=0.9,1,-2,-5,-1,na,11")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := AlignParams{ScoreProp: 0.9, Match: 1, Mismatch: -2, GapOpen: -5, GapExtend: -1, MapLimit: nil, JaccardK: 11}
	if p.Align != want {
		t.Fatalf("match overrides = %+v, want %+v", p.Align, want)
	}
}

func TestParseRejectsUnknownToken(t *testing.T) {
	if _, err := Parse("bogus=1"); err == nil {
		t.Fatal("Parse with unknown token: want error, got nil")
	}
}

func TestParseRejectsOutOfRangePercent(t *testing.T) {
	if _, err := Parse("ro=101"); err == nil {
		t.Fatal("Parse(\"ro=101\"): want error, got nil")
	}
	if _, err := Parse("ro=-1"); err == nil {
		t.Fatal("Parse(\"ro=-1\"): want error, got nil")
	}
}

func TestParseEmptySpecIsZeroValue(t *testing.T) {
	p, err := Parse("")
	if err != nil {
		t.Fatalf("Parse(\"\"): %v", err)
	}
	if p.ROMin != nil || p.SZROMin != nil || p.OffsetMax != nil || p.MatchSeq {
		t.Fatalf("Parse(\"\") = %+v, want zero value", p)
	}
}

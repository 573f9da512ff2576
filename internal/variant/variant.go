// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package variant defines the in-memory representation of a structural
// variant call and of the bookkeeping the merge pipeline attaches to
// it as calls are folded together across samples.
package variant

import "fmt"

// SVType is the enumeration of structural variant classes a Record
// may carry. The loader upper-cases the SVTYPE column and keeps
// unrecognized values as given rather than rejecting them.
type SVType string

// Recognized variant types. RGN is the default applied to a row whose
// SVTYPE column is absent.
const (
	INS SVType = "INS"
	DEL SVType = "DEL"
	INV SVType = "INV"
	DUP SVType = "DUP"
	CNV SVType = "CNV"
	SNV SVType = "SNV"
	SUB SVType = "SUB"
	BND SVType = "BND"
	RGN SVType = "RGN"
)

// Record is one row of a per-sample variant table. Optional/pass-through
// columns that the loader was not asked to interpret are carried in
// Extra, keyed by their original column header.
type Record struct {
	Chrom  string
	Pos    int
	End    int
	ID     string
	SVType SVType
	SVLen  int

	Ref string
	Alt string
	Seq string

	Extra map[string]string
}

// EffectiveEnd returns the footprint end used by the interval
// partitioner: for INS this is Pos+SVLen (the logical span of the
// inserted sequence), for every other type it is End itself. This is
// intentionally different from the breakpoint End the overlap
// resolver measures ro and offset against, where an INS's End is
// Pos+1 (set by the loader's parseRow); inflating by the insertion
// length lets the
// partitioner reach INS candidates whose breakpoints alone would not
// overlap.
func (r Record) EffectiveEnd() int {
	if r.SVType == INS {
		return r.Pos + r.SVLen
	}
	return r.End
}

func (r Record) String() string {
	return fmt.Sprintf("%s:%d-%d(%s,%s,%d)", r.Chrom, r.Pos, r.End, r.ID, r.SVType, r.SVLen)
}

// Support carries the evidence metrics the merge pipeline attaches to
// a contributed row once it has been matched against a lead. Sentinel
// value -1 on every numeric field marks a lead's self-support row;
// finalize.Run replaces the sentinels with 0 for the offset and
// 1 for the ratio fields.
type Support struct {
	Sample        string
	SupportID     string
	SupportSample string
	SupportOffset int
	SupportRO     float64
	SupportSZRO   float64
	SupportOffsz  float64
	SupportMatch  float64
}

// SelfSupport returns the sentinel Support for a lead row contributed
// by sample, supporting itself.
func SelfSupport(sample, id string) Support {
	return Support{
		Sample:        sample,
		SupportID:     id,
		SupportSample: sample,
		SupportOffset: -1,
		SupportRO:     -1,
		SupportSZRO:   -1,
		SupportOffsz:  -1,
		SupportMatch:  -1,
	}
}

// Merged is one row of the running merged table: the
// contributed Record together with the Support bookkeeping that ties
// it to its lead.
type Merged struct {
	Record
	Support
}

// RowKey uniquely identifies a row of the running merged table.
// Record.ID alone cannot: it is only unique within the sample that
// contributed the row, and SupportID is shared between a lead and any
// support rows admitted under it, so only the (sample, id) pair
// distinguishes every row.
func (m Merged) RowKey() string {
	return m.Sample + "\x00" + m.ID
}

// Summary is one row of the finalizer's grouped output: a single
// distinct lead's evidence, aggregated across every sample that
// supports it.
type Summary struct {
	LeadID     string
	MergeSrc   string
	MergeSrcID string

	MergeAC int
	MergeAF float64

	MergeSamples  []string
	MergeVariants []string

	MergeRO     []float64
	MergeOffset []int
	MergeSZRO   []float64
	MergeOffsz  []float64
	MergeMatch  []float64
}

// Discovery classifies a Summary row by how broadly it is shared
// across the input samples.
type Discovery string

const (
	Shared Discovery = "SHARED"
	Major  Discovery = "MAJOR"
	Poly   Discovery = "POLY"
	Single Discovery = "SINGLE"
)

// Classify buckets s as SHARED when every sample carries it, MAJOR at
// half or more, POLY above one supporting sample and SINGLE otherwise.
func Classify(s Summary) Discovery {
	switch {
	case s.MergeAF == 1:
		return Shared
	case s.MergeAF >= 0.5:
		return Major
	case s.MergeAC > 1:
		return Poly
	default:
		return Single
	}
}

// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loader reads one sample's variant table: parse the
// tab-separated rows, optionally left-join inserted/deleted sequence
// from an indexed FASTA source, derive or default missing columns,
// validate, and build a sorted, ID-indexed svstore.Store.
package loader

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/hts/fai"

	"github.com/czakarian/svpop/internal/svpoperr"
	"github.com/czakarian/svpop/internal/svstore"
	"github.com/czakarian/svpop/internal/tablefmt"
	"github.com/czakarian/svpop/internal/variant"
)

// RequiredPrefix is the leading column set of an input variant table.
// Load itself requires only #CHROM, POS, END and ID: a missing SVLEN is
// derived as END-POS and a missing SVTYPE defaults to RGN.
var RequiredPrefix = []string{"#CHROM", "POS", "END", "ID", "SVTYPE", "SVLEN"}

// SeqSource resolves a variant ID to its inserted/deleted sequence.
// The concrete implementation, FastaSeqSource, wraps a
// github.com/biogo/hts/fai-indexed FASTA file whose records are keyed
// by variant ID rather than chromosome name.
type SeqSource interface {
	Sequence(id string) (seq string, ok bool, err error)
}

// FastaSeqSource resolves sequences from a .fai-indexed FASTA file.
type FastaSeqSource struct {
	file *fai.File
}

// OpenFastaSeqSource indexes path (building the .fai index in memory;
// it does not require or write a sidecar .fai file) and returns a
// SeqSource reading from it.
func OpenFastaSeqSource(path string) (*FastaSeqSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open sequence source %s: %w", path, err)
	}
	idx, err := fai.NewIndex(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("loader: index sequence source %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("loader: seek sequence source %s: %w", path, err)
	}
	return &FastaSeqSource{file: fai.NewFile(f, idx)}, nil
}

func (s *FastaSeqSource) Sequence(id string) (string, bool, error) {
	r, err := s.file.Seq(id)
	if err != nil {
		return "", false, nil
	}
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return "", false, fmt.Errorf("loader: read sequence %s: %w", id, err)
	}
	return strings.ToUpper(string(b)), true, nil
}

// Options configures one call to Load.
type Options struct {
	Sample    string
	Path      string
	SeqSource SeqSource // optional
	// RequireSeq demands that every row resolve a non-empty Seq,
	// either from a SEQ column already present in the table or from
	// SeqSource; set when svparam.Params.ReadSeq is true.
	RequireSeq bool
	// RequireRef and RequireAlt demand the REF/ALT columns be
	// present, set when the merge specification gates on ref/alt
	// equality.
	RequireRef bool
	RequireAlt bool
	// WorkDir, if non-empty, backs the returned Store with a file in
	// this directory instead of the OS default temp location (used by
	// -work to keep the store around for svaudit).
	WorkDir string
}

// Load reads, validates and stores one sample's variant table.
func Load(opt Options) (*svstore.Store, error) {
	f, err := os.Open(opt.Path)
	if err != nil {
		return nil, fmt.Errorf("loader[%s]: open %s: %w", opt.Sample, opt.Path, err)
	}
	defer f.Close()

	table, err := tablefmt.Read(f)
	if err != nil {
		return nil, fmt.Errorf("loader[%s]: %w", opt.Sample, err)
	}

	if err := requireColumns(table.Header, []string{"#CHROM", "POS", "END", "ID"}); err != nil {
		return nil, fmt.Errorf("loader[%s]: %w: %v", opt.Sample, svpoperr.ErrSchema, err)
	}
	hasSVLen := hasColumn(table.Header, "SVLEN")
	hasSVType := hasColumn(table.Header, "SVTYPE")
	hasSeqCol := hasColumn(table.Header, "SEQ")

	if opt.RequireRef && !hasColumn(table.Header, "REF") {
		return nil, fmt.Errorf("loader[%s]: %w: ref matching requested but table has no REF column", opt.Sample, svpoperr.ErrSchema)
	}
	if opt.RequireAlt && !hasColumn(table.Header, "ALT") {
		return nil, fmt.Errorf("loader[%s]: %w: alt matching requested but table has no ALT column", opt.Sample, svpoperr.ErrSchema)
	}

	if opt.SeqSource != nil && hasSeqCol {
		return nil, fmt.Errorf("loader[%s]: %w: SEQ column present and sequence source both supplied", opt.Sample, svpoperr.ErrSequence)
	}
	if opt.RequireSeq && opt.SeqSource == nil && !hasSeqCol {
		return nil, fmt.Errorf("loader[%s]: %w: sequence gating requires a SEQ column or a sequence source", opt.Sample, svpoperr.ErrSequence)
	}

	store, err := svstore.Open(opt.WorkDir, "sample-"+opt.Sample)
	if err != nil {
		return nil, fmt.Errorf("loader[%s]: %w", opt.Sample, err)
	}

	seen := make(map[string]bool, len(table.Rows))
	var missingSeq []string

	for _, row := range table.Rows {
		rec, err := parseRow(row, hasSVLen, hasSVType)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("loader[%s]: %w: %v", opt.Sample, svpoperr.ErrSchema, err)
		}

		if seen[rec.ID] {
			store.Close()
			return nil, fmt.Errorf("loader[%s]: %w: duplicate variant ID %q", opt.Sample, svpoperr.ErrIdentity, rec.ID)
		}
		seen[rec.ID] = true

		if rec.Seq == "" && opt.SeqSource != nil {
			seq, ok, err := opt.SeqSource.Sequence(rec.ID)
			if err != nil {
				store.Close()
				return nil, fmt.Errorf("loader[%s]: %w", opt.Sample, err)
			}
			if ok {
				rec.Seq = validateSeq(seq)
			} else if opt.RequireSeq {
				missingSeq = append(missingSeq, rec.ID)
			}
		} else if rec.Seq != "" {
			rec.Seq = validateSeq(rec.Seq)
		} else if opt.RequireSeq {
			missingSeq = append(missingSeq, rec.ID)
		}

		if err := store.Put(variant.Merged{Record: rec, Support: variant.SelfSupport(opt.Sample, rec.ID)}); err != nil {
			store.Close()
			return nil, fmt.Errorf("loader[%s]: %w", opt.Sample, err)
		}
	}

	if len(missingSeq) > 0 {
		store.Close()
		shown := missingSeq
		if len(shown) > 3 {
			shown = shown[:3]
		}
		return nil, fmt.Errorf("loader[%s]: %w: %d variants missing sequence: %s%s",
			opt.Sample, svpoperr.ErrSequence, len(missingSeq), strings.Join(shown, ", "),
			ellipsis(len(missingSeq) > 3))
	}

	if err := store.Flush(); err != nil {
		store.Close()
		return nil, fmt.Errorf("loader[%s]: %w", opt.Sample, err)
	}
	return store, nil
}

func ellipsis(more bool) string {
	if more {
		return "..."
	}
	return ""
}

func requireColumns(header []string, want []string) error {
	for _, w := range want {
		if !hasColumn(header, w) {
			return fmt.Errorf("missing required column %q", w)
		}
	}
	return nil
}

func hasColumn(header []string, name string) bool {
	for _, h := range header {
		if h == name {
			return true
		}
	}
	return false
}

func parseRow(row tablefmt.Row, hasSVLen, hasSVType bool) (variant.Record, error) {
	var rec variant.Record
	rec.Chrom = row["#CHROM"]
	rec.ID = row["ID"]

	pos, err := strconv.Atoi(row["POS"])
	if err != nil || pos < 0 {
		return rec, fmt.Errorf("row %s: invalid POS %q", rec.ID, row["POS"])
	}
	rec.Pos = pos

	end, err := strconv.Atoi(row["END"])
	if err != nil {
		return rec, fmt.Errorf("row %s: invalid END %q", rec.ID, row["END"])
	}
	rec.End = end

	if hasSVType {
		rec.SVType = variant.SVType(strings.ToUpper(row["SVTYPE"]))
	} else {
		rec.SVType = variant.RGN
	}

	// An insertion has no reference span of its own; the breakpoint key
	// fixes End at Pos+1 regardless of what the table's END column
	// says, while EffectiveEnd (used by the interval partitioner) uses
	// Pos+SVLen for the inflated footprint. This is the asymmetry
	// variant.Record.EffectiveEnd's doc comment describes.
	if rec.SVType == variant.INS {
		rec.End = rec.Pos + 1
	}

	if hasSVLen {
		svlen, err := strconv.Atoi(row["SVLEN"])
		if err != nil {
			return rec, fmt.Errorf("row %s: invalid SVLEN %q", rec.ID, row["SVLEN"])
		}
		rec.SVLen = svlen
	} else {
		if rec.SVType == variant.INS {
			return rec, fmt.Errorf("row %s: SVLEN required for INS and not present", rec.ID)
		}
		rec.SVLen = rec.End - rec.Pos
	}

	if rec.SVLen < 0 {
		return rec, fmt.Errorf("row %s: SVLEN must be >= 0, got %d", rec.ID, rec.SVLen)
	}

	rec.Ref = row["REF"]
	rec.Alt = row["ALT"]
	rec.Seq = strings.ToUpper(row["SEQ"])

	extra := make(map[string]string)
	for k, v := range row {
		switch k {
		case "#CHROM", "POS", "END", "ID", "SVTYPE", "SVLEN", "REF", "ALT", "SEQ":
		default:
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		rec.Extra = extra
	}

	return rec, nil
}

// validateSeq upper-cases a raw sequence string and maps any byte
// outside alphabet.DNAredundant to 'N'; ambiguity codes are kept, not
// rejected.
func validateSeq(seq string) string {
	seq = strings.ToUpper(seq)
	buf := []byte(seq)
	for i, b := range buf {
		if !alphabet.DNAredundant.IsValid(alphabet.Letter(b)) {
			buf[i] = 'N'
		}
	}
	return string(buf)
}

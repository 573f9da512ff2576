// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/czakarian/svpop/internal/variant"
)

func writeTable(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.tsv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadDerivesSVLenFromSpan(t *testing.T) {
	path := writeTable(t, "#CHROM\tPOS\tEND\tID\tSVTYPE\n"+"chr1\t100\t250\tsv1\tDEL\n")
	store, err := Load(Options{Sample: "s1", Path: path, WorkDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer store.Close()

	m, ok, err := store.Get("sv1")
	if err != nil || !ok {
		t.Fatalf("Get(sv1): ok=%v err=%v", ok, err)
	}
	if m.SVLen != 150 {
		t.Errorf("derived SVLen = %d, want 150 (END-POS)", m.SVLen)
	}
}

func TestLoadINSWithoutSVLenIsError(t *testing.T) {
	path := writeTable(t, "#CHROM\tPOS\tEND\tID\tSVTYPE\n"+"chr1\t100\t101\tsv1\tINS\n")
	_, err := Load(Options{Sample: "s1", Path: path, WorkDir: t.TempDir()})
	if err == nil {
		t.Fatal("Load with INS row lacking SVLEN: want error, got nil")
	}
}

func TestLoadDuplicateIDIsError(t *testing.T) {
	path := writeTable(t, "#CHROM\tPOS\tEND\tID\n"+"chr1\t100\t200\tsv1\n"+"chr1\t300\t400\tsv1\n")
	_, err := Load(Options{Sample: "s1", Path: path, WorkDir: t.TempDir()})
	if err == nil {
		t.Fatal("Load with duplicate ID: want error, got nil")
	}
}

func TestLoadMissingRequiredColumnIsError(t *testing.T) {
	path := writeTable(t, "#CHROM\tPOS\tID\n"+"chr1\t100\tsv1\n")
	_, err := Load(Options{Sample: "s1", Path: path, WorkDir: t.TempDir()})
	if err == nil {
		t.Fatal("Load missing END column: want error, got nil")
	}
}

func TestLoadDefaultsSVTypeToRGN(t *testing.T) {
	path := writeTable(t, "#CHROM\tPOS\tEND\tID\n"+"chr1\t100\t200\tsv1\n")
	store, err := Load(Options{Sample: "s1", Path: path, WorkDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer store.Close()
	m, _, _ := store.Get("sv1")
	if m.SVType != variant.RGN {
		t.Errorf("default SVType = %s, want RGN", m.SVType)
	}
}

func TestLoadRequireRefWithoutColumnIsError(t *testing.T) {
	path := writeTable(t, "#CHROM\tPOS\tEND\tID\n"+"chr1\t100\t200\tsv1\n")
	_, err := Load(Options{Sample: "s1", Path: path, RequireRef: true, WorkDir: t.TempDir()})
	if err == nil {
		t.Fatal("Load with RequireRef and no REF column: want error, got nil")
	}
}

func TestLoadRequireSeqWithoutSourceIsError(t *testing.T) {
	path := writeTable(t, "#CHROM\tPOS\tEND\tID\n"+"chr1\t100\t200\tsv1\n")
	_, err := Load(Options{Sample: "s1", Path: path, RequireSeq: true, WorkDir: t.TempDir()})
	if err == nil {
		t.Fatal("Load with RequireSeq and no SEQ column or source: want error, got nil")
	}
}

func TestParseRowNormalizesInsertionEnd(t *testing.T) {
	row := map[string]string{
		"#CHROM": "chr1", "POS": "100", "END": "500", "ID": "ins1", "SVTYPE": "INS", "SVLEN": "300",
	}
	rec, err := parseRow(row, true, true)
	if err != nil {
		t.Fatalf("parseRow: %v", err)
	}
	if rec.End != 101 {
		t.Errorf("INS row End = %d, want Pos+1 = 101 regardless of the table's END column", rec.End)
	}
	if rec.EffectiveEnd() != 400 {
		t.Errorf("INS row EffectiveEnd() = %d, want Pos+SVLen = 400", rec.EffectiveEnd())
	}
}

func TestParseRowExtraColumnsArePassedThrough(t *testing.T) {
	row := map[string]string{
		"#CHROM": "chr1", "POS": "100", "END": "200", "ID": "sv1", "FILTER": "PASS",
	}
	rec, err := parseRow(row, false, false)
	if err != nil {
		t.Fatalf("parseRow: %v", err)
	}
	if rec.Extra["FILTER"] != "PASS" {
		t.Errorf("Extra[FILTER] = %q, want PASS", rec.Extra["FILTER"])
	}
}

// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package align

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

func TestNucleicBuildCommand(t *testing.T) {
	n := Nucleic{Query: "q.fa", Subject: "s.fa", OutFormat: 6}
	cmd, err := n.BuildCommand()
	if err != nil {
		t.Fatalf("BuildCommand: %v", err)
	}
	want := []string{"blastn", "-query", "q.fa", "-subject", "s.fa", "-outfmt", "6"}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Errorf("BuildCommand args = %v, want %v", cmd.Args, want)
	}
}

func TestExternalScoreParsesBitScore(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub aligner script requires a POSIX shell")
	}
	// A stand-in for blastn that ignores its arguments and reports a
	// single tabular HSP with bit score 12 in the final column.
	line := "query\tsubject\t100.000\t10\t0\t0\t1\t10\t1\t10\t1e-05\t12"
	script := filepath.Join(t.TempDir(), "stub-aligner")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nprintf '%s\\n' '"+line+"'\n"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	e := NewExternal(script, 2, "")
	got, err := e.Score("ACGTACGTAA", "ACGTACGTAA")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// bit score 12 over match*min(len) = 2*10.
	if want := 12.0 / 20; got != want {
		t.Errorf("Score = %v, want %v", got, want)
	}
}

func TestExternalMissingSequenceScoresZero(t *testing.T) {
	e := NewExternal("does-not-run", 2, "")
	got, err := e.Score("", "ACGT")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got != 0 {
		t.Errorf("Score(\"\", seq) = %v, want 0 without invoking the aligner", got)
	}
}

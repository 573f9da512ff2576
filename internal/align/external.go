// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package align

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/biogo/external"
)

// Nucleic is the buildarg-tagged command-line shape of an external
// pairwise nucleotide aligner invocation: every field maps to a flag
// template, and external.Build turns the populated struct into an
// argument vector.
type Nucleic struct {
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}blastn{{end}}"`

	Query   string `buildarg:"-query{{split}}{{.}}"`
	Subject string `buildarg:"{{if .}}-subject{{split}}{{.}}{{end}}"`

	GapOpen   int `buildarg:"{{if .}}-gapopen{{split}}{{.}}{{end}}"`
	GapExtend int `buildarg:"{{if .}}-gapextend{{split}}{{.}}{{end}}"`
	Reward    int `buildarg:"{{if .}}-reward{{split}}{{.}}{{end}}"`
	Penalty   int `buildarg:"{{if .}}-penalty{{split}}{{.}}{{end}}"`
	OutFormat int `buildarg:"{{if .}}-outfmt{{split}}{{.}}{{end}}"`

	ExtraFlags string
}

func (n Nucleic) BuildCommand() (*exec.Cmd, error) {
	cl := external.Must(external.Build(n))
	var extra []string
	if n.ExtraFlags != "" {
		extra = strings.Split(n.ExtraFlags, " ")
	}
	return exec.Command(cl[0], append(cl[1:], extra...)...), nil
}

// External scores pairs by shelling out to a real BLAST-family
// aligner instead of the in-process Affine/Jaccard scorers, for
// callers who already trust a specific toolchain's scoring behavior.
// Each call writes both sequences to temporary FASTA files, invokes
// blastn -subject (bypassing the need for a prebuilt database) with
// tabular output, and parses the resulting bit score.
type External struct {
	cmd        string
	match      float64
	extraFlags string
}

// NewExternal builds an External scorer invoking cmd (default
// "blastn" when empty) with the configured match score used for
// normalization, mirroring Scorer's own match-score normalization.
func NewExternal(cmd string, match float64, extraFlags string) *External {
	if cmd == "" {
		cmd = "blastn"
	}
	return &External{cmd: cmd, match: match, extraFlags: extraFlags}
}

func (e *External) Score(a, b string) (float64, error) {
	if a == "" || b == "" {
		return 0, nil
	}

	qf, err := writeFasta("svpop-align-query-*.fa", "query", a)
	if err != nil {
		return 0, err
	}
	defer os.Remove(qf)
	sf, err := writeFasta("svpop-align-subject-*.fa", "subject", b)
	if err != nil {
		return 0, err
	}
	defer os.Remove(sf)

	n := Nucleic{
		Cmd:        e.cmd,
		Query:      qf,
		Subject:    sf,
		OutFormat:  6,
		ExtraFlags: e.extraFlags,
	}
	cmd, err := n.BuildCommand()
	if err != nil {
		return 0, fmt.Errorf("align: build external aligner command: %w", err)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("align: run external aligner: %w", err)
	}

	bitScore, err := bestBitScore(&out)
	if err != nil {
		return 0, err
	}
	denom := e.match * float64(minLen(len(a), len(b)))
	if denom <= 0 {
		return 0, nil
	}
	prop := bitScore / denom
	if prop < 0 {
		prop = 0
	}
	if prop > 1 {
		prop = 1
	}
	return prop, nil
}

func writeFasta(pattern, name, seq string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("align: create temp fasta: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, ">%s\n%s\n", name, seq); err != nil {
		return "", fmt.Errorf("align: write temp fasta: %w", err)
	}
	return f.Name(), nil
}

// bestBitScore reads blastn's tabular output (format 6) and returns
// the highest bit score across all reported HSPs.
func bestBitScore(r *bytes.Buffer) (float64, error) {
	const bitScoreCol = 11
	sc := bufio.NewScanner(r)
	var best float64
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) <= bitScoreCol {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(f[bitScoreCol]), 64)
		if err != nil {
			continue
		}
		if v > best {
			best = v
		}
	}
	return best, sc.Err()
}

// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// svmerge merges per-sample structural-variant call tables into a
// single non-redundant callset. Samples are folded in one at a time,
// in the order given on the command line, against a colon-separated
// merge specification controlling the matching thresholds.
//
//	$ svmerge -spec ro=50 -sample a=a.tsv -sample b=b.tsv >merged.tsv
package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/czakarian/svpop/internal/accumulate"
	"github.com/czakarian/svpop/internal/align"
	"github.com/czakarian/svpop/internal/coverage"
	"github.com/czakarian/svpop/internal/finalize"
	"github.com/czakarian/svpop/internal/loader"
	"github.com/czakarian/svpop/internal/provenance"
	"github.com/czakarian/svpop/internal/resolve"
	"github.com/czakarian/svpop/internal/svparam"
	"github.com/czakarian/svpop/internal/svstore"
	"github.com/czakarian/svpop/internal/tablefmt"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("svmerge: ")

	var samples sliceValue
	spec := flag.String("spec", "", "merge specification, colon-separated key[=value] tokens")
	flag.Var(&samples, "sample", "a sample table as name=path.tsv (required, may be given more than once, in fold order)")
	seqFile := flag.String("seq", "", "indexed FASTA file of inserted/deleted sequences, keyed by variant ID, shared by every sample")
	alignerName := flag.String("aligner", "builtin", "sequence-match scorer: builtin (in-process affine/Jaccard) or external (BLAST-family tool)")
	alignerCmd := flag.String("aligner-cmd", "", "external aligner command, default blastn (only with -aligner=external)")
	alignerFlags := flag.String("aligner-flags", "", "extra flags passed through to the external aligner")
	outPath := flag.String("out", "", "output path (default stdout)")
	threads := flag.Int("threads", 0, "number of packets to resolve concurrently (<=0 means runtime.NumCPU())")
	work := flag.String("work", "", "directory to keep intermediate .kv stores in (default: a removed temp dir)")
	covOut := flag.String("coverage", "", "write an allele-count coverage report to this path")
	dotOut := flag.String("dot", "", "write a sample-support graph in DOT format to this path")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), `Usage of %[1]s:
  $ %[1]s -spec <spec> -sample name1=path1.tsv -sample name2=path2.tsv ... >out.tsv

Options:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if len(samples) < 1 || *spec == "" {
		flag.Usage()
		os.Exit(2)
	}

	if *threads <= 0 {
		*threads = runtime.NumCPU()
	}

	p, err := svparam.Parse(*spec)
	if err != nil {
		log.Fatal(err)
	}

	workDir := *work
	if workDir == "" {
		tmp, err := ioutil.TempDir("", "svmerge-*")
		if err != nil {
			log.Fatal(err)
		}
		workDir = tmp
		defer os.RemoveAll(workDir)
	} else {
		log.Printf("keeping work in %s", workDir)
	}

	var seqSource loader.SeqSource
	if *seqFile != "" {
		fs, err := loader.OpenFastaSeqSource(*seqFile)
		if err != nil {
			log.Fatal(err)
		}
		seqSource = fs
	}

	names, paths, err := samples.parse()
	if err != nil {
		log.Fatal(err)
	}

	originals := make(map[string]*svstore.Store, len(names))
	defer func() {
		for _, s := range originals {
			s.Close()
		}
	}()

	for i, name := range names {
		st, err := loader.Load(loader.Options{
			Sample:     name,
			Path:       paths[i],
			SeqSource:  seqSource,
			RequireSeq: p.ReadSeq,
			RequireRef: p.MatchRef,
			RequireAlt: p.MatchAlt,
			WorkDir:    workDir,
		})
		if err != nil {
			log.Fatal(err)
		}
		if *work != "" {
			st.Keep()
		}
		originals[name] = st
	}

	var aligner resolve.Aligner
	switch *alignerName {
	case "builtin":
		aligner = align.NewScorer(p.Align)
	case "external":
		aligner = align.NewExternal(*alignerCmd, p.Align.Match, *alignerFlags)
	default:
		log.Fatalf("unknown -aligner %q: want builtin or external", *alignerName)
	}
	acc, err := accumulate.New(p, aligner, *threads, workDir)
	if err != nil {
		log.Fatal(err)
	}

	if err := acc.Seed(names[0], originals[names[0]]); err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	for _, name := range names[1:] {
		log.Printf("folding sample %s", name)
		if err := acc.Fold(ctx, name, originals[name]); err != nil {
			log.Fatal(err)
		}
	}

	merged, sampleOrder, err := acc.Finish()
	if err != nil {
		log.Fatal(err)
	}
	if *work != "" {
		merged.Keep()
	}
	defer merged.Close()

	rows, err := finalize.Run(merged, sampleOrder, originals)
	if err != nil {
		log.Fatal(err)
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		out = f
	}
	if err := writeTable(out, rows); err != nil {
		log.Fatal(err)
	}

	if *covOut != "" {
		hist, err := coverage.Build(rows)
		if err != nil {
			log.Fatal(err)
		}
		if err := writeCoverage(*covOut, hist); err != nil {
			log.Fatal(err)
		}
	}

	if *dotOut != "" {
		b, err := provenance.Graph(rows, "svmerge")
		if err != nil {
			log.Fatal(err)
		}
		if err := ioutil.WriteFile(*dotOut, b, 0o664); err != nil {
			log.Fatal(err)
		}
	}
}

// writeTable emits the merged callset: the union of contributing
// input columns, with the required #CHROM/POS/END/ID prefix,
// SVTYPE/SVLEN, and the appended MERGE_* columns.
func writeTable(w *os.File, rows []finalize.Row) error {
	header := []string{"#CHROM", "POS", "END", "ID", "SVTYPE", "SVLEN"}
	extraCols := make(map[string]bool)
	hasRef, hasAlt, hasSeq := false, false, false
	for _, r := range rows {
		if r.Ref != "" {
			hasRef = true
		}
		if r.Alt != "" {
			hasAlt = true
		}
		if r.Seq != "" {
			hasSeq = true
		}
		for k := range r.Extra {
			extraCols[k] = true
		}
	}
	if hasRef {
		header = append(header, "REF")
	}
	if hasAlt {
		header = append(header, "ALT")
	}
	if hasSeq {
		header = append(header, "SEQ")
	}
	var extra []string
	for k := range extraCols {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	header = append(header, extra...)
	header = append(header,
		"MERGE_SRC", "MERGE_SRC_ID", "MERGE_AC", "MERGE_AF",
		"MERGE_SAMPLES", "MERGE_VARIANTS", "MERGE_RO", "MERGE_OFFSET",
		"MERGE_SZRO", "MERGE_OFFSZ", "MERGE_MATCH")

	t := tablefmt.Table{Header: header}
	for _, r := range rows {
		row := tablefmt.Row{
			"#CHROM": r.Chrom,
			"POS":    strconv.Itoa(r.Pos),
			"END":    strconv.Itoa(r.End),
			"ID":     r.ID,
			"SVTYPE": string(r.SVType),
			"SVLEN":  strconv.Itoa(r.SVLen),
			"REF":    r.Ref,
			"ALT":    r.Alt,
			"SEQ":    r.Seq,

			"MERGE_SRC":      r.Summary.MergeSrc,
			"MERGE_SRC_ID":   r.Summary.MergeSrcID,
			"MERGE_AC":       strconv.Itoa(r.Summary.MergeAC),
			"MERGE_AF":       strconv.FormatFloat(r.Summary.MergeAF, 'f', 4, 64),
			"MERGE_SAMPLES":  finalize.JoinStrings(r.Summary.MergeSamples),
			"MERGE_VARIANTS": finalize.JoinStrings(r.Summary.MergeVariants),
			"MERGE_RO":       finalize.JoinFloats(r.Summary.MergeRO, 2),
			"MERGE_OFFSET":   finalize.JoinInts(r.Summary.MergeOffset),
			"MERGE_SZRO":     finalize.JoinFloats(r.Summary.MergeSZRO, 2),
			"MERGE_OFFSZ":    finalize.JoinFloats(r.Summary.MergeOffsz, 2),
			"MERGE_MATCH":    finalize.JoinFloats(r.Summary.MergeMatch, 2),
		}
		for k, v := range r.Extra {
			row[k] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return tablefmt.Write(w, t)
}

func writeCoverage(path string, hist coverage.Histogram) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, ac := range hist.Levels() {
		if _, err := fmt.Fprintf(f, "%d\t%d\n", ac, hist[ac]); err != nil {
			return err
		}
	}
	return nil
}

// sliceValue is a multi-value -sample flag, each of the form
// name=path, collected in command-line order so fold order is exactly
// the order samples are given.
type sliceValue []string

func (s *sliceValue) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func (s *sliceValue) String() string {
	return fmt.Sprintf("%q", []string(*s))
}

func (s sliceValue) parse() (names, paths []string, err error) {
	seen := make(map[string]bool, len(s))
	for _, tok := range s {
		i := strings.IndexByte(tok, '=')
		if i < 0 {
			return nil, nil, fmt.Errorf("-sample %q: expected name=path", tok)
		}
		name, path := tok[:i], tok[i+1:]
		if name == "" || path == "" {
			return nil, nil, fmt.Errorf("-sample %q: expected name=path", tok)
		}
		if seen[name] {
			return nil, nil, fmt.Errorf("-sample: duplicate sample name %q", name)
		}
		seen[name] = true
		names = append(names, name)
		paths = append(paths, path)
	}
	return names, paths, nil
}

// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tablefmt reads and writes tab-separated variant tables: a
// header row (required prefix #CHROM POS END ID, optionally SVTYPE
// SVLEN, optional REF/ALT/SEQ, any number of caller-defined
// pass-through columns) followed by one row per variant call.
package tablefmt

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Row is one parsed line, keyed by header column name.
type Row map[string]string

// Table is a header (in file order) plus its rows, in file order.
type Table struct {
	Header []string
	Rows   []Row
}

// Read parses a tab-separated table from r. The first row is taken as
// the header; every subsequent row must have the same field count.
func Read(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return Table{}, fmt.Errorf("tablefmt: empty table: missing header")
		}
		return Table{}, fmt.Errorf("tablefmt: read header: %w", err)
	}

	var t Table
	t.Header = header

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("tablefmt: read row: %w", err)
		}
		if len(rec) != len(header) {
			return Table{}, fmt.Errorf("tablefmt: row has %d fields, header has %d", len(rec), len(header))
		}
		row := make(Row, len(header))
		for i, col := range header {
			row[col] = rec[i]
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Write emits t as a tab-separated table, using t.Header for column
// order; rows missing a header column write an empty field.
func Write(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	cw.UseCRLF = false

	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("tablefmt: write header: %w", err)
	}
	rec := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i, col := range t.Header {
			rec[i] = row[col]
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("tablefmt: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package svstore provides the composite-key byte encoding and the
// modernc.org/kv-backed ordered row store used to hold per-sample
// variant tables and the running merged table. Rows are marshaled
// into a byte key carrying (chrom, pos, svlen, id) so that
// modernc.org/kv keeps each table sorted for the exact matcher's
// merge-join scan and the accumulator's re-sort.
package svstore

import (
	"bytes"
	"encoding/binary"

	"github.com/czakarian/svpop/internal/variant"
)

var order = binary.BigEndian

// CanonicalKey returns the byte encoding of the composite sort key
// (chrom, pos, svlen, id) that keeps a table's rows ordered, and that
// gives the accumulator its re-sort of the running merged table for
// free. The contributing sample is appended as a final component so
// that rows from two samples coinciding on all four sort fields (an
// exact match folded in as support alongside its lead) occupy
// distinct keys; it never reorders rows that differ earlier in the
// key.
func CanonicalKey(m variant.Merged) []byte {
	var buf bytes.Buffer
	writeString(&buf, m.Chrom)
	writeInt(&buf, m.Pos)
	writeInt(&buf, m.SVLen)
	writeString(&buf, m.ID)
	writeString(&buf, m.Sample)
	return buf.Bytes()
}

// CompareCanonical is a kv.Options.Compare function ordering keys as
// CanonicalKey produces them: by chrom, then pos, then svlen, then id.
// Keys are unmarshaled and compared field-wise; the raw encoding is
// length-prefixed and does not order correctly under bytes.Compare.
func CompareCanonical(x, y []byte) int {
	if bytes.Equal(x, y) {
		return 0
	}

	dx := DecodeCanonicalKey(x)
	dy := DecodeCanonicalKey(y)

	switch {
	case dx.Chrom < dy.Chrom:
		return -1
	case dx.Chrom > dy.Chrom:
		return 1
	}
	switch {
	case dx.Pos < dy.Pos:
		return -1
	case dx.Pos > dy.Pos:
		return 1
	}
	switch {
	case dx.SVLen < dy.SVLen:
		return -1
	case dx.SVLen > dy.SVLen:
		return 1
	}
	switch {
	case dx.ID < dy.ID:
		return -1
	case dx.ID > dy.ID:
		return 1
	}
	switch {
	case dx.Sample < dy.Sample:
		return -1
	case dx.Sample > dy.Sample:
		return 1
	}

	panic("unreachable")
}

func writeString(buf *bytes.Buffer, s string) {
	var b [8]byte
	order.PutUint64(b[:], uint64(len(s)))
	buf.Write(b[:])
	buf.WriteString(s)
}

func writeInt(buf *bytes.Buffer, n int) {
	var b [8]byte
	order.PutUint64(b[:], uint64(int64(n))+1<<63)
	buf.Write(b[:])
}

func readString(data []byte) (string, []byte) {
	n := order.Uint64(data[:8])
	data = data[8:]
	s := string(data[:n])
	return s, data[n:]
}

func readInt(data []byte) (int, []byte) {
	v := int64(order.Uint64(data[:8]) - 1<<63)
	return int(v), data[8:]
}

// DecodedKey is CanonicalKey's inverse, used by svaudit and tests that
// need to recover the sort fields from a raw key without the row body.
type DecodedKey struct {
	Chrom  string
	Pos    int
	SVLen  int
	ID     string
	Sample string
}

// DecodeCanonicalKey reverses CanonicalKey.
func DecodeCanonicalKey(k []byte) DecodedKey {
	var d DecodedKey
	d.Chrom, k = readString(k)
	d.Pos, k = readInt(k)
	d.SVLen, k = readInt(k)
	d.ID, k = readString(k)
	d.Sample, _ = readString(k)
	return d
}

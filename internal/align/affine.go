// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package align

const negInf = -1 << 30

// Affine is a score-only Gotoh affine-gap global aligner. The dynamic
// programming is banded (a diagonal window scaled to sequence length,
// skipping cells far off the main diagonal) and keeps Gotoh's three
// matrices (match, gap-in-a, gap-in-b) for affine gap costs without a
// traceback; resolve only needs the optimal score, never the
// alignment itself.
type Affine struct {
	match, mismatch, gapOpen, gapExtend float64
}

func NewAffine(match, mismatch, gapOpen, gapExtend float64) *Affine {
	return &Affine{match: match, mismatch: mismatch, gapOpen: gapOpen, gapExtend: gapExtend}
}

// Score returns the optimal global alignment score of a against b.
func (af *Affine) Score(a, b string) float64 {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return 0
	}

	band := (n + m) / 4
	if n <= 11 || m <= 11 || band < 11 {
		band = n + m // effectively unbanded for short sequences
	}

	rows, cols := n+1, m+1
	mM := make([][]float64, rows)
	ix := make([][]float64, rows)
	iy := make([][]float64, rows)
	for i := range mM {
		mM[i] = make([]float64, cols)
		ix[i] = make([]float64, cols)
		iy[i] = make([]float64, cols)
	}

	for i := 1; i < rows; i++ {
		mM[i][0] = negInf
		iy[i][0] = negInf
		ix[i][0] = af.gapOpen + float64(i-1)*af.gapExtend
	}
	for j := 1; j < cols; j++ {
		mM[0][j] = negInf
		ix[0][j] = negInf
		iy[0][j] = af.gapOpen + float64(j-1)*af.gapExtend
	}

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			if abs(i-j) > band {
				mM[i][j], ix[i][j], iy[i][j] = negInf, negInf, negInf
				continue
			}
			s := af.mismatch
			if a[i-1] == b[j-1] {
				s = af.match
			}
			mM[i][j] = max3(mM[i-1][j-1], ix[i-1][j-1], iy[i-1][j-1]) + s
			ix[i][j] = max2(mM[i-1][j]+af.gapOpen, ix[i-1][j]+af.gapExtend)
			iy[i][j] = max2(mM[i][j-1]+af.gapOpen, iy[i][j-1]+af.gapExtend)
		}
	}

	return max3(mM[n][m], ix[n][m], iy[n][m])
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func max3(a, b, c float64) float64 {
	return max2(a, max2(b, c))
}

// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package align

// Jaccard scores sequence similarity by the Jaccard index of the two
// sequences' k-mer multisets, the fallback used once either sequence
// exceeds the configured map limit, where full alignment would be too
// costly.
type Jaccard struct {
	k int
}

func NewJaccard(k int) *Jaccard {
	if k <= 0 {
		k = 9
	}
	return &Jaccard{k: k}
}

// Score returns |kmers(a) ∩ kmers(b)| / |kmers(a) ∪ kmers(b)|, treating
// each distinct k-mer with its multiplicity (a multiset, not a set) so
// that repetitive sequences are not over-credited for similarity.
func (j *Jaccard) Score(a, b string) float64 {
	ka := kmerCounts(a, j.k)
	kb := kmerCounts(b, j.k)
	if len(ka) == 0 && len(kb) == 0 {
		return 0
	}

	var intersect, union int
	for kmer, ca := range ka {
		cb := ka0(kb, kmer)
		if ca < cb {
			intersect += ca
		} else {
			intersect += cb
		}
		if ca > cb {
			union += ca
		} else {
			union += cb
		}
	}
	for kmer, cb := range kb {
		if _, ok := ka[kmer]; ok {
			continue
		}
		union += cb
	}
	if union == 0 {
		return 0
	}
	return float64(intersect) / float64(union)
}

func ka0(m map[string]int, k string) int { return m[k] }

func kmerCounts(s string, k int) map[string]int {
	if len(s) < k {
		if s == "" {
			return nil
		}
		return map[string]int{s: 1}
	}
	counts := make(map[string]int, len(s)-k+1)
	for i := 0; i+k <= len(s); i++ {
		counts[s[i:i+k]]++
	}
	return counts
}

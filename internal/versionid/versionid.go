// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package versionid resolves variant ID collisions: rewrite a
// duplicate ID by appending ".k" for the smallest positive integer k
// producing a globally unique ID, continuing from an existing ".n"
// suffix rather than restarting at .1.
package versionid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/czakarian/svpop/internal/svpoperr"
)

// Seen tracks IDs already assigned, across both pre-existing IDs and
// IDs this run has already versioned.
type Seen map[string]bool

// Resolve returns id unchanged if it is not in seen; otherwise it
// returns the smallest ".k" suffixed variant not in seen. If id
// already carries a numeric ".n" suffix, k continues from n+1.
//
// Resolve does not itself mutate seen; callers fold the returned ID
// into seen before processing the next one, which is what gives
// VersionColumn its idempotence on an already-unique column.
func Resolve(id string, seen Seen) (string, error) {
	if !seen[id] {
		return id, nil
	}

	base, start := id, 1
	if i := strings.LastIndex(id, "."); i >= 0 {
		suffix := id[i+1:]
		n, err := strconv.Atoi(suffix)
		if err != nil {
			return "", fmt.Errorf("versionid: malformed version suffix in %q: %w", id, svpoperr.ErrIdentity)
		}
		if n < 0 {
			return "", fmt.Errorf("versionid: negative version suffix in %q: %w", id, svpoperr.ErrIdentity)
		}
		base = id[:i]
		start = n + 1
	}

	for k := start; ; k++ {
		cand := fmt.Sprintf("%s.%d", base, k)
		if !seen[cand] {
			return cand, nil
		}
	}
}

// VersionColumn applies Resolve across ids in order, folding each
// result into seen before processing the next, so that duplicates
// within ids itself are also resolved against each other and not just
// against the pre-existing seen set.
func VersionColumn(ids []string, seen Seen) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		v, err := Resolve(id, seen)
		if err != nil {
			return nil, err
		}
		out[i] = v
		seen[v] = true
	}
	return out, nil
}

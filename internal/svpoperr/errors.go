// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package svpoperr defines the sentinel error kinds surfaced by the
// merge pipeline, so callers can branch on error class with errors.Is
// instead of matching message strings.
package svpoperr

import "errors"

// Sentinel error kinds. Each is wrapped with call-site context via
// fmt.Errorf("%s: %w", ...) rather than stringified into the sentinel
// itself, so errors.Is keeps working after wrapping.
var (
	// ErrConfiguration marks a merge-specification error: unknown keys,
	// out-of-range values, or conflicting flags.
	ErrConfiguration = errors.New("configuration error")

	// ErrSchema marks a per-sample table schema violation: a missing
	// required column, a negative SVLEN, an INS row without an explicit
	// SVLEN, or a REF/ALT match requested on a table lacking the column.
	ErrSchema = errors.New("schema error")

	// ErrIdentity marks a duplicate ID within a sample table or a
	// malformed versioned-ID suffix.
	ErrIdentity = errors.New("identity error")

	// ErrSequence marks a sequence-resolution failure: sequence gating
	// requested with no source configured, or specific IDs missing from
	// a configured source.
	ErrSequence = errors.New("sequence error")

	// ErrRuntime marks a packet worker failure propagated from the
	// overlap resolver's worker pool.
	ErrRuntime = errors.New("runtime error")

	// ErrInvariant marks an internal post-merge invariant violation
	// (e.g. duplicate lead IDs surviving to the final table) that
	// indicates a bug in the pipeline rather than bad input.
	ErrInvariant = errors.New("invariant violation")
)

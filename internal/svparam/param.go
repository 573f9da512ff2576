// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package svparam parses the colon-separated merge-specification
// string into a validated Params value. All fields are resolved at
// construction time so downstream stages never re-validate.
package svparam

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/czakarian/svpop/internal/svpoperr"
)

// AlignParams holds the sequence-alignment gating configuration
// enabled by the "match" key.
type AlignParams struct {
	ScoreProp float64 // (0,1]
	Match     float64 // > 0
	Mismatch  float64 // <= 0
	GapOpen   float64 // <= 0
	GapExtend float64 // <= 0

	// MapLimit is the sequence-length threshold past which the Jaccard
	// fallback is used instead of full alignment. A nil MapLimit means
	// no limit ("na"/"unlimited").
	MapLimit *int

	JaccardK int // > 0
}

// defaultAlign is applied for any "match" field left empty.
var defaultAlign = AlignParams{
	ScoreProp: 0.8,
	Match:     2,
	Mismatch:  -1,
	GapOpen:   -5,
	GapExtend: -0.5,
	MapLimit:  intPtr(20000),
	JaccardK:  9,
}

func intPtr(n int) *int { return &n }

// Params is the fully-resolved, validated configuration for one merge
// run, derived from a merge-specification string.
type Params struct {
	ROMin     *float64 // reciprocal-overlap threshold, nil if no RO phase
	SZROMin   *float64 // size-overlap threshold, nil if no size+offset phase
	OffsetMax *int     // max breakpoint offset, nil if "offset" was not given

	MatchRef bool
	MatchAlt bool

	Expand bool

	MatchSeq bool // sequence-alignment gating enabled
	Align    AlignParams
	ReadSeq  bool // sample loader must resolve a SEQ column
}

// Parse tokenizes s on ':' and validates every key=value pair,
// returning a fully-resolved Params.
func Parse(s string) (Params, error) {
	var p Params
	sawRO, sawSZRO := false, false

	for _, tok := range strings.Split(s, ":") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		key, val, hasVal := splitKV(tok)
		key = strings.ToLower(key)

		switch key {
		case "ro":
			if !hasVal {
				return p, cfgErrf("missing value for %q (e.g. %q)", "ro", "ro=50")
			}
			v, err := parsePercent(val, "ro")
			if err != nil {
				return p, err
			}
			p.ROMin = &v
			sawRO = true

		case "szro":
			if !hasVal {
				return p, cfgErrf("missing value for %q (e.g. %q)", "szro", "szro=50")
			}
			v, err := parsePercent(val, "szro")
			if err != nil {
				return p, err
			}
			p.SZROMin = &v
			sawSZRO = true

		case "offset":
			if !hasVal {
				return p, cfgErrf("missing value for %q (e.g. %q)", "offset", "offset=2000")
			}
			n, err := strconv.Atoi(strings.TrimSpace(val))
			if err != nil {
				return p, cfgErrf("offset must be an integer: %q", val)
			}
			if n < 0 {
				return p, cfgErrf("offset may not be negative: %d", n)
			}
			p.OffsetMax = &n

		case "refalt":
			if hasVal {
				return p, cfgErrf("%q takes no argument", "refalt")
			}
			p.MatchRef = true
			p.MatchAlt = true

		case "ref":
			if hasVal {
				return p, cfgErrf("%q takes no argument", "ref")
			}
			p.MatchRef = true

		case "alt":
			if hasVal {
				return p, cfgErrf("%q takes no argument", "alt")
			}
			p.MatchAlt = true

		case "expand":
			if hasVal {
				return p, cfgErrf("%q takes no argument", "expand")
			}
			p.Expand = true

		case "match":
			align, err := parseMatch(val)
			if err != nil {
				return p, err
			}
			p.MatchSeq = true
			p.Align = align

		default:
			return p, cfgErrf("unknown parameter token: %q", key)
		}
	}

	if sawSZRO && p.OffsetMax == nil {
		return p, cfgErrf(`"szro" was specified without "offset"`)
	}
	if !sawRO && sawSZRO {
		p.ROMin = p.SZROMin
	}

	p.ReadSeq = p.MatchSeq

	return p, nil
}

func splitKV(tok string) (key, val string, hasVal bool) {
	i := strings.IndexByte(tok, '=')
	if i < 0 {
		return tok, "", false
	}
	return tok[:i], tok[i+1:], true
}

func parsePercent(val, key string) (float64, error) {
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0, cfgErrf("%s must be an integer 0-100: %q", key, val)
	}
	if n < 0 || n > 100 {
		return 0, cfgErrf("%s must be between 0 and 100 (inclusive): %d", key, n)
	}
	return float64(n) / 100, nil
}

// parseMatch implements the up-to-7-field "match" sub-grammar, field
// order: score-proportion, match, mismatch, gap-open, gap-extend,
// map-limit, jaccard-k.
func parseMatch(val string) (AlignParams, error) {
	align := defaultAlign
	val = strings.TrimSpace(val)
	if val == "" {
		return align, nil
	}

	fields := strings.Split(val, ",")
	if len(fields) > 7 {
		return align, cfgErrf("match argument count %d exceeds max 7", len(fields))
	}

	for i, raw := range fields {
		tok := strings.TrimSpace(raw)
		if tok == "" {
			continue
		}
		switch i {
		case 0:
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return align, cfgErrf("match score-proportion must be a number: %q", tok)
			}
			if v <= 0 || v > 1 {
				return align, cfgErrf("match score-proportion must be in (0,1]: %v", v)
			}
			align.ScoreProp = v
		case 1:
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return align, cfgErrf("match 'match' value must be a number: %q", tok)
			}
			if v <= 0 {
				return align, cfgErrf("match 'match' value must be positive: %v", v)
			}
			align.Match = v
		case 2:
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return align, cfgErrf("match 'mismatch' value must be a number: %q", tok)
			}
			if v > 0 {
				return align, cfgErrf("match 'mismatch' value must not be positive: %v", v)
			}
			align.Mismatch = v
		case 3:
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return align, cfgErrf("match gap-open value must be a number: %q", tok)
			}
			if v > 0 {
				return align, cfgErrf("match gap-open value must not be positive: %v", v)
			}
			align.GapOpen = v
		case 4:
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return align, cfgErrf("match gap-extend value must be a number: %q", tok)
			}
			if v > 0 {
				return align, cfgErrf("match gap-extend value must not be positive: %v", v)
			}
			align.GapExtend = v
		case 5:
			low := strings.ToLower(tok)
			if low == "na" || low == "unlimited" {
				align.MapLimit = nil
				continue
			}
			n, err := strconv.Atoi(tok)
			if err != nil {
				return align, cfgErrf("match map-limit must be an integer, 'na' or 'unlimited': %q", tok)
			}
			if n < 0 {
				return align, cfgErrf("match map-limit must not be negative: %d", n)
			}
			align.MapLimit = &n
		case 6:
			n, err := strconv.Atoi(tok)
			if err != nil {
				return align, cfgErrf("match jaccard-k must be an integer: %q", tok)
			}
			if n <= 0 {
				return align, cfgErrf("match jaccard-k must be positive: %d", n)
			}
			align.JaccardK = n
		}
	}
	return align, nil
}

func cfgErrf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), svpoperr.ErrConfiguration)
}

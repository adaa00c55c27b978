// Package coerce converts raw feed attribute text into typed values.
//
// Every function is total: malformed or missing input yields nil (or false
// for flags) and never an error. Callers omit nil values from the records
// they build, so a partial document cannot blank out a column on merge.
package coerce

import (
	"math"
	"strconv"
	"strings"
)

// DefaultTrueToken is the text the feeds use for a set boolean flag.
const DefaultTrueToken = "T"

// Int parses raw as a base-10 integer.
func Int(raw string) *int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// Float parses raw as a finite float. NaN and infinities are rejected
// since neither store accepts them in a numeric column.
func Float(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Flag reports whether raw equals trueToken exactly. A missing attribute
// and an explicit false read the same.
func Flag(raw, trueToken string) bool {
	return raw == trueToken
}

// Text returns raw when the attribute was present, nil otherwise.
func Text(raw string, present bool) *string {
	if !present {
		return nil
	}
	return &raw
}

// Ptr returns a pointer to v. Used for derived values that are always set.
func Ptr[T any](v T) *T {
	return &v
}

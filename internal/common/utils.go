package common

import (
	"strconv"
	"strings"
)

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// NormalizeKey trims and lowercases a join key (region, area, column name).
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Round rounds v to the given number of decimal places using the exact
// decimal value of v, so 7.35 (stored as 7.3499...) rounds to 7.3.
func Round(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}

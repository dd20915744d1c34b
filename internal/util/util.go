// Package util provides common helpers for host wire payloads.
package util

import "strings"

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// CleanWireString applies the host string fixes in the order the wire
// requires: the single outer quote pair first, then escaped quotes.
// Only one pair is stripped; a trailing escaped quote ("") must survive
// for FixEscapeQuotes to fold.
func CleanWireString(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	return FixEscapeQuotes(s)
}

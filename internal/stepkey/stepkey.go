// Package stepkey parses and orders dotted step identifiers such as "2.10.1".
package stepkey

import (
	"strconv"
	"strings"
)

// Parse splits a dotted step number into its integer segments.
// Empty, non-numeric and overflowing segments are dropped.
func Parse(number string) []int {
	var out []int
	for _, seg := range strings.Split(number, ".") {
		if seg == "" {
			continue
		}
		n, err := strconv.ParseUint(seg, 10, 31)
		if err != nil {
			continue
		}
		out = append(out, int(n))
	}
	return out
}

// Valid reports whether every dotted segment is a non-empty unsigned integer.
func Valid(number string) bool {
	if number == "" {
		return false
	}
	for _, seg := range strings.Split(number, ".") {
		if seg == "" {
			return false
		}
		if _, err := strconv.ParseUint(seg, 10, 31); err != nil {
			return false
		}
	}
	return true
}

// Compare orders two step numbers by their parsed segments.
// A shorter number sorts before a longer one sharing its prefix ("2" < "2.1").
// Numbers without a single parseable segment sort after all others and
// compare equal among themselves.
func Compare(a, b string) int {
	return CompareKeys(Parse(a), Parse(b))
}

// CompareKeys is Compare on already parsed keys. An empty key means unparsable.
func CompareKeys(ka, kb []int) int {
	switch {
	case len(ka) == 0 && len(kb) == 0:
		return 0
	case len(ka) == 0:
		return 1
	case len(kb) == 0:
		return -1
	}
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if ka[i] < kb[i] {
			return -1
		}
		if ka[i] > kb[i] {
			return 1
		}
	}
	switch {
	case len(ka) < len(kb):
		return -1
	case len(ka) > len(kb):
		return 1
	}
	return 0
}

// ParentNumber drops the last dotted segment. It returns "" for top-level
// numbers, meaning the parent is the virtual root.
func ParentNumber(number string) string {
	i := strings.LastIndexByte(number, '.')
	if i < 0 {
		return ""
	}
	return number[:i]
}

// Depth is the number of '.' separators in number.
func Depth(number string) int {
	return strings.Count(number, ".")
}

// AnchorID returns the in-page anchor for a step, e.g. "1.2.3" -> "step-1-2-3".
func AnchorID(number string) string {
	return "step-" + strings.ReplaceAll(number, ".", "-")
}

// NumberFromAnchor reverses AnchorID for anchors built from valid numbers.
func NumberFromAnchor(anchor string) string {
	return strings.ReplaceAll(strings.TrimPrefix(anchor, "step-"), "-", ".")
}

package version

import (
	"strconv"
	"strings"
)

// Compare orders a and b, returning -1, 0 or 1. Numeric segments compare
// first; a stable version sorts above any pre-release of the same numbers.
// Metadata is ignored.
func Compare(a, b *SemanticVersion) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if c := compareInt(a.Major, b.Major); c != 0 {
		return c
	}
	if c := compareInt(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := compareInt(a.Patch, b.Patch); c != 0 {
		return c
	}
	if c := compareInt(a.Revision, b.Revision); c != 0 {
		return c
	}

	return compareReleaseLabels(a.ReleaseLabels, b.ReleaseLabels)
}

// Compare is the method form of the package-level Compare.
func (v *SemanticVersion) Compare(other *SemanticVersion) int {
	return Compare(v, other)
}

// Equal reports whether the versions order equally.
func (v *SemanticVersion) Equal(other *SemanticVersion) bool {
	return Compare(v, other) == 0
}

// LessThan reports whether v sorts strictly before other.
func (v *SemanticVersion) LessThan(other *SemanticVersion) bool {
	return Compare(v, other) < 0
}

// GreaterThan reports whether v sorts strictly after other.
func (v *SemanticVersion) GreaterThan(other *SemanticVersion) bool {
	return Compare(v, other) > 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareReleaseLabels(a, b []string) int {
	switch {
	case len(a) == 0 && len(b) == 0:
		return 0
	case len(a) == 0:
		return 1
	case len(b) == 0:
		return -1
	}

	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareLabel(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareInt(len(a), len(b))
}

// compareLabel orders two identifiers: numbers numerically, numbers below
// words, words by case-insensitive ordinal comparison.
func compareLabel(a, b string) int {
	an, aNumeric := labelNumber(a)
	bn, bNumeric := labelNumber(b)

	switch {
	case aNumeric && bNumeric:
		return compareUint(an, bn)
	case aNumeric:
		return -1
	case bNumeric:
		return 1
	}

	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func labelNumber(s string) (uint64, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Package version provides NuGet semantic version parsing, ordering and
// version constraint matching.
//
// Versions carry up to four numeric segments (major.minor.patch.revision)
// plus optional pre-release labels and build metadata:
//
//	v, err := version.Parse("1.2.3-beta.1")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(v.Major, v.Minor, v.Patch) // 1 2 3
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// SemanticVersion is an immutable NuGet package version.
type SemanticVersion struct {
	Major int
	Minor int
	Patch int

	// Revision is the fourth numeric segment of legacy versions (1.2.3.4).
	Revision int

	// ReleaseLabels holds the dot-separated pre-release identifiers ("beta", "1" for "-beta.1").
	ReleaseLabels []string

	// Metadata is build metadata after '+'. It never participates in ordering.
	Metadata string

	segments       int
	originalString string
}

// FormatError reports a malformed version or version spec string.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid version %q: %s", e.Input, e.Reason)
}

// Parse parses a version string of one to four numeric segments with optional
// "-prerelease" and "+metadata" suffixes.
func Parse(s string) (*SemanticVersion, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return nil, &FormatError{Input: s, Reason: "version string cannot be empty"}
	}

	v := &SemanticVersion{originalString: text}

	versionPart := text
	if idx := strings.IndexByte(text, '+'); idx >= 0 {
		versionPart = text[:idx]
		v.Metadata = text[idx+1:]
		if err := validateIdentifiers(v.Metadata, false); err != "" {
			return nil, &FormatError{Input: s, Reason: "metadata " + err}
		}
	}

	numberPart := versionPart
	if idx := strings.IndexByte(versionPart, '-'); idx >= 0 {
		numberPart = versionPart[:idx]
		labels := versionPart[idx+1:]
		if err := validateIdentifiers(labels, true); err != "" {
			return nil, &FormatError{Input: s, Reason: "pre-release label " + err}
		}
		v.ReleaseLabels = strings.Split(labels, ".")
	}

	numbers := strings.Split(numberPart, ".")
	if len(numbers) > 4 {
		return nil, &FormatError{Input: s, Reason: "more than four numeric segments"}
	}
	v.segments = len(numbers)

	fields := []*int{&v.Major, &v.Minor, &v.Patch, &v.Revision}
	for i, n := range numbers {
		value, ok := parseSegment(n)
		if !ok {
			return nil, &FormatError{Input: s, Reason: fmt.Sprintf("segment %q is not a non-negative integer", n)}
		}
		*fields[i] = value
	}

	return v, nil
}

// MustParse parses a version string and panics on error.
func MustParse(s string) *SemanticVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseSegment(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// validateIdentifiers checks a dot-separated identifier list and returns a
// reason on failure.
func validateIdentifiers(s string, prerelease bool) string {
	if s == "" {
		return "is empty"
	}
	for _, id := range strings.Split(s, ".") {
		if id == "" {
			return "has an empty identifier"
		}
		numeric := true
		for i := 0; i < len(id); i++ {
			c := id[i]
			switch {
			case c >= '0' && c <= '9':
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '-':
				numeric = false
			default:
				return fmt.Sprintf("contains invalid character %q", c)
			}
		}
		if prerelease && numeric && len(id) > 1 && id[0] == '0' {
			return fmt.Sprintf("numeric identifier %q has a leading zero", id)
		}
	}
	return ""
}

// IsPrerelease reports whether the version carries release labels.
func (v *SemanticVersion) IsPrerelease() bool {
	return len(v.ReleaseLabels) > 0
}

// Release returns the pre-release portion joined by dots ("" for stable versions).
func (v *SemanticVersion) Release() string {
	return strings.Join(v.ReleaseLabels, ".")
}

// String returns the text the version was parsed from, or the normalized form
// for versions built in code.
func (v *SemanticVersion) String() string {
	if v.originalString != "" {
		return v.originalString
	}
	return v.ToNormalizedString()
}

// ToNormalizedString returns the canonical form: three numeric segments, a
// fourth only when the revision is non-zero, then labels and metadata.
func (v *SemanticVersion) ToNormalizedString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Revision > 0 {
		fmt.Fprintf(&sb, ".%d", v.Revision)
	}
	if len(v.ReleaseLabels) > 0 {
		sb.WriteByte('-')
		sb.WriteString(v.Release())
	}
	if v.Metadata != "" {
		sb.WriteByte('+')
		sb.WriteString(v.Metadata)
	}
	return sb.String()
}

package version

import (
	"fmt"
	"strings"
)

// VersionSpec is a version constraint with optional lower and upper bounds.
//
// Syntax:
//
//	1.0          - x ≥ 1.0
//	[1.0]        - x == 1.0
//	[1.0, 2.0]   - 1.0 ≤ x ≤ 2.0
//	(1.0, 2.0)   - 1.0 < x < 2.0
//	[1.0, 2.0)   - 1.0 ≤ x < 2.0
//	(1.0, )      - x > 1.0
//	(, 2.0]      - x ≤ 2.0
//
// A spec without bounds (including a nil *VersionSpec) admits every version.
type VersionSpec struct {
	MinVersion     *SemanticVersion
	MaxVersion     *SemanticVersion
	IsMinInclusive bool
	IsMaxInclusive bool
}

// ParseVersionSpec parses a constraint in NuGet interval notation.
func ParseVersionSpec(s string) (*VersionSpec, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return nil, &FormatError{Input: s, Reason: "version spec cannot be empty"}
	}

	if text[0] != '[' && text[0] != '(' {
		v, err := Parse(text)
		if err != nil {
			return nil, err
		}
		return &VersionSpec{MinVersion: v, IsMinInclusive: true}, nil
	}

	last := text[len(text)-1]
	if len(text) < 3 || (last != ']' && last != ')') {
		return nil, &FormatError{Input: s, Reason: "interval must end with ] or )"}
	}

	spec := &VersionSpec{
		IsMinInclusive: text[0] == '[',
		IsMaxInclusive: last == ']',
	}

	parts := strings.Split(text[1:len(text)-1], ",")
	switch len(parts) {
	case 1:
		// [1.0] is the only single-version interval form.
		if !spec.IsMinInclusive || !spec.IsMaxInclusive {
			return nil, &FormatError{Input: s, Reason: "exact version must use [version]"}
		}
		v, err := Parse(parts[0])
		if err != nil {
			return nil, err
		}
		spec.MinVersion, spec.MaxVersion = v, v
	case 2:
		minPart := strings.TrimSpace(parts[0])
		maxPart := strings.TrimSpace(parts[1])
		if minPart != "" {
			v, err := Parse(minPart)
			if err != nil {
				return nil, err
			}
			spec.MinVersion = v
		}
		if maxPart != "" {
			v, err := Parse(maxPart)
			if err != nil {
				return nil, err
			}
			spec.MaxVersion = v
		}
	default:
		return nil, &FormatError{Input: s, Reason: "interval must have one or two comma-separated versions"}
	}

	if err := spec.Validate(); err != nil {
		return nil, &FormatError{Input: s, Reason: err.Error()}
	}
	return spec, nil
}

// MustParseSpec parses a version spec and panics on error.
func MustParseSpec(s string) *VersionSpec {
	spec, err := ParseVersionSpec(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// ExactSpec returns [v].
func ExactSpec(v *SemanticVersion) *VersionSpec {
	return &VersionSpec{MinVersion: v, MaxVersion: v, IsMinInclusive: true, IsMaxInclusive: true}
}

// Validate checks that the bounds describe a non-empty interval.
func (s *VersionSpec) Validate() error {
	if s == nil || s.MinVersion == nil || s.MaxVersion == nil {
		return nil
	}
	c := Compare(s.MinVersion, s.MaxVersion)
	if c > 0 {
		return fmt.Errorf("minimum %s is greater than maximum %s", s.MinVersion, s.MaxVersion)
	}
	if c == 0 && (!s.IsMinInclusive || !s.IsMaxInclusive) {
		return fmt.Errorf("interval %s admits no version", s)
	}
	return nil
}

// IsSatisfiedBy reports whether v lies within the spec's bounds.
func (s *VersionSpec) IsSatisfiedBy(v *SemanticVersion) bool {
	if v == nil {
		return false
	}
	if s == nil {
		return true
	}

	if s.MinVersion != nil {
		c := Compare(v, s.MinVersion)
		if c < 0 || (c == 0 && !s.IsMinInclusive) {
			return false
		}
	}

	if s.MaxVersion != nil {
		c := Compare(v, s.MaxVersion)
		if c > 0 || (c == 0 && !s.IsMaxInclusive) {
			return false
		}
	}

	return true
}

// IsExact reports whether the spec pins a single version.
func (s *VersionSpec) IsExact() bool {
	return s != nil && s.MinVersion != nil && s.MaxVersion != nil &&
		s.IsMinInclusive && s.IsMaxInclusive && Compare(s.MinVersion, s.MaxVersion) == 0
}

// HasPrereleaseBound reports whether either bound is a pre-release version.
func (s *VersionSpec) HasPrereleaseBound() bool {
	if s == nil {
		return false
	}
	return (s.MinVersion != nil && s.MinVersion.IsPrerelease()) ||
		(s.MaxVersion != nil && s.MaxVersion.IsPrerelease())
}

// Intersect returns the spec admitting exactly the versions both a and b
// admit. ok is false when no version can satisfy both.
func Intersect(a, b *VersionSpec) (spec *VersionSpec, ok bool) {
	if a == nil {
		a = &VersionSpec{}
	}
	if b == nil {
		b = &VersionSpec{}
	}

	out := &VersionSpec{}

	switch {
	case a.MinVersion == nil:
		out.MinVersion, out.IsMinInclusive = b.MinVersion, b.IsMinInclusive
	case b.MinVersion == nil:
		out.MinVersion, out.IsMinInclusive = a.MinVersion, a.IsMinInclusive
	default:
		switch c := Compare(a.MinVersion, b.MinVersion); {
		case c > 0:
			out.MinVersion, out.IsMinInclusive = a.MinVersion, a.IsMinInclusive
		case c < 0:
			out.MinVersion, out.IsMinInclusive = b.MinVersion, b.IsMinInclusive
		default:
			out.MinVersion, out.IsMinInclusive = a.MinVersion, a.IsMinInclusive && b.IsMinInclusive
		}
	}

	switch {
	case a.MaxVersion == nil:
		out.MaxVersion, out.IsMaxInclusive = b.MaxVersion, b.IsMaxInclusive
	case b.MaxVersion == nil:
		out.MaxVersion, out.IsMaxInclusive = a.MaxVersion, a.IsMaxInclusive
	default:
		switch c := Compare(a.MaxVersion, b.MaxVersion); {
		case c < 0:
			out.MaxVersion, out.IsMaxInclusive = a.MaxVersion, a.IsMaxInclusive
		case c > 0:
			out.MaxVersion, out.IsMaxInclusive = b.MaxVersion, b.IsMaxInclusive
		default:
			out.MaxVersion, out.IsMaxInclusive = a.MaxVersion, a.IsMaxInclusive && b.IsMaxInclusive
		}
	}

	if out.Validate() != nil {
		return nil, false
	}
	return out, true
}

// String renders the spec in the notation ParseVersionSpec accepts.
func (s *VersionSpec) String() string {
	if s == nil || (s.MinVersion == nil && s.MaxVersion == nil) {
		return "(, )"
	}
	if s.MaxVersion == nil && s.IsMinInclusive {
		return s.MinVersion.String()
	}
	if s.IsExact() {
		return "[" + s.MinVersion.String() + "]"
	}

	var sb strings.Builder
	if s.IsMinInclusive {
		sb.WriteByte('[')
	} else {
		sb.WriteByte('(')
	}
	if s.MinVersion != nil {
		sb.WriteString(s.MinVersion.String())
	}
	sb.WriteString(", ")
	if s.MaxVersion != nil {
		sb.WriteString(s.MaxVersion.String())
	}
	if s.IsMaxInclusive {
		sb.WriteByte(']')
	} else {
		sb.WriteByte(')')
	}
	return sb.String()
}

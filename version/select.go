package version

import (
	"fmt"
	"slices"
	"strings"
)

// DependencyVersion is the policy for choosing among versions that satisfy a
// dependency's constraints.
type DependencyVersion int

const (
	// Lowest picks the smallest satisfying version.
	Lowest DependencyVersion = iota
	// HighestPatch picks the highest satisfying version sharing major.minor with the lowest.
	HighestPatch
	// HighestMinor picks the highest satisfying version sharing major with the lowest.
	HighestMinor
	// Highest picks the largest satisfying version.
	Highest
)

func (d DependencyVersion) String() string {
	switch d {
	case Lowest:
		return "Lowest"
	case HighestPatch:
		return "HighestPatch"
	case HighestMinor:
		return "HighestMinor"
	case Highest:
		return "Highest"
	default:
		return fmt.Sprintf("DependencyVersion(%d)", int(d))
	}
}

// ParseDependencyVersion parses a policy name case-insensitively. Empty means Lowest.
func ParseDependencyVersion(s string) (DependencyVersion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lowest":
		return Lowest, nil
	case "highestpatch":
		return HighestPatch, nil
	case "highestminor":
		return HighestMinor, nil
	case "highest":
		return Highest, nil
	default:
		return Lowest, fmt.Errorf("unknown dependency version policy %q", s)
	}
}

// SelectVersion applies policy to the candidates satisfying spec. Pre-release
// candidates are considered only when allowPrerelease is set or a bound of
// spec is itself a pre-release. It returns nil when nothing qualifies.
func SelectVersion(spec *VersionSpec, candidates []*SemanticVersion, policy DependencyVersion, allowPrerelease bool) *SemanticVersion {
	prerelease := allowPrerelease || spec.HasPrereleaseBound()

	matches := make([]*SemanticVersion, 0, len(candidates))
	for _, v := range candidates {
		if v == nil || (!prerelease && v.IsPrerelease()) {
			continue
		}
		if spec.IsSatisfiedBy(v) {
			matches = append(matches, v)
		}
	}
	if len(matches) == 0 {
		return nil
	}

	slices.SortFunc(matches, Compare)
	lowest := matches[0]

	switch policy {
	case Highest:
		return matches[len(matches)-1]
	case HighestMinor, HighestPatch:
		best := lowest
		for _, v := range matches[1:] {
			if v.Major != lowest.Major {
				break
			}
			if policy == HighestPatch && v.Minor != lowest.Minor {
				break
			}
			best = v
		}
		return best
	default:
		return lowest
	}
}

// Latest returns the highest stable version, falling back to the highest
// pre-release when there is no stable one or allowPrerelease is set.
func Latest(candidates []*SemanticVersion, allowPrerelease bool) *SemanticVersion {
	if v := SelectVersion(nil, candidates, Highest, allowPrerelease); v != nil {
		return v
	}
	return SelectVersion(nil, candidates, Highest, true)
}

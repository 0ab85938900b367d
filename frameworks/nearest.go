package frameworks

// GetNearest picks the candidate closest to target among the compatible ones:
// the same framework family at the highest version not above target, then
// the highest compatible .NET Standard, then the universal framework. It
// returns nil when nothing is compatible.
func GetNearest(target *NuGetFramework, candidates []*NuGetFramework) *NuGetFramework {
	var best *NuGetFramework
	bestRank := -1

	for _, fw := range candidates {
		if !IsCompatible(fw, target) {
			continue
		}
		rank := nearnessRank(fw, target)
		if rank > bestRank || (rank == bestRank && fw.Version.Compare(best.Version) > 0) {
			best, bestRank = fw, rank
		}
	}
	return best
}

func nearnessRank(fw, target *NuGetFramework) int {
	switch {
	case fw.IsAny():
		return 0
	case target != nil && fw.Framework == target.Framework:
		if fw.Platform != "" {
			return 4
		}
		return 3
	case fw.Framework == NetStandard:
		return 2
	default:
		return 1
	}
}

package core

import "github.com/willibrandon/nugetplan/frameworks"

// SelectDependencies returns the dependency set that applies to target: the
// nearest compatible framework-specific set, else the universal set. A nil
// target only matches the universal set.
func SelectDependencies(sets []DependencySet, target *frameworks.NuGetFramework) []PackageDependency {
	var universal *DependencySet
	candidates := make([]*frameworks.NuGetFramework, 0, len(sets))
	byFramework := make(map[*frameworks.NuGetFramework]*DependencySet, len(sets))

	for i := range sets {
		set := &sets[i]
		if set.TargetFramework.IsAny() {
			if universal == nil {
				universal = set
			}
			continue
		}
		candidates = append(candidates, set.TargetFramework)
		byFramework[set.TargetFramework] = set
	}

	if target != nil && !target.IsAny() {
		if nearest := frameworks.GetNearest(target, candidates); nearest != nil {
			return byFramework[nearest].Dependencies
		}
	}

	if universal != nil {
		return universal.Dependencies
	}
	return nil
}

// SelectReferences returns the assemblies from the lib/ folder nearest to
// target. Assemblies placed directly under lib/ are used when no framework
// folder is compatible.
func SelectReferences(refs []AssemblyReference, target *frameworks.NuGetFramework) []AssemblyReference {
	var universal []AssemblyReference
	var candidates []*frameworks.NuGetFramework
	seen := make(map[string]bool)

	for _, ref := range refs {
		if ref.TargetFramework.IsAny() {
			universal = append(universal, ref)
			continue
		}
		if name := ref.TargetFramework.ShortFolderName(); !seen[name] {
			seen[name] = true
			candidates = append(candidates, ref.TargetFramework)
		}
	}

	if target != nil && !target.IsAny() {
		if nearest := frameworks.GetNearest(target, candidates); nearest != nil {
			var out []AssemblyReference
			for _, ref := range refs {
				if !ref.TargetFramework.IsAny() && ref.TargetFramework.Equals(nearest) {
					out = append(out, ref)
				}
			}
			return out
		}
	}
	return universal
}

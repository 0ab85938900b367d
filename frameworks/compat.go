package frameworks

import "strings"

type versionKey struct{ major, minor int }

// Minimum .NET Framework version implementing each .NET Standard version.
// netstandard2.1 has no .NET Framework implementation.
var netStandardToFramework = map[versionKey]FrameworkVersion{
	{1, 0}: {Major: 4, Minor: 5},
	{1, 1}: {Major: 4, Minor: 5},
	{1, 2}: {Major: 4, Minor: 5, Build: 1},
	{1, 3}: {Major: 4, Minor: 6},
	{1, 4}: {Major: 4, Minor: 6, Build: 1},
	{1, 5}: {Major: 4, Minor: 6, Build: 1},
	{1, 6}: {Major: 4, Minor: 6, Build: 1},
	{2, 0}: {Major: 4, Minor: 6, Build: 1},
}

// Minimum .NETCoreApp version implementing each .NET Standard version.
var netStandardToCoreApp = map[versionKey]FrameworkVersion{
	{1, 0}: {Major: 1},
	{1, 1}: {Major: 1},
	{1, 2}: {Major: 1},
	{1, 3}: {Major: 1},
	{1, 4}: {Major: 1},
	{1, 5}: {Major: 1},
	{1, 6}: {Major: 1},
	{2, 0}: {Major: 2},
	{2, 1}: {Major: 3},
}

// IsCompatible reports whether a package asset built for pkg can be used by
// a project targeting target.
func IsCompatible(pkg, target *NuGetFramework) bool {
	if pkg.IsAny() {
		return true
	}
	if target == nil || target.IsAny() {
		return false
	}
	if pkg.Platform != "" && !strings.EqualFold(pkg.Platform, target.Platform) {
		return false
	}

	if pkg.Framework == target.Framework {
		return pkg.Version.Compare(target.Version) <= 0
	}

	if pkg.Framework == NetStandard {
		key := versionKey{pkg.Version.Major, pkg.Version.Minor}
		switch target.Framework {
		case NetFramework:
			minVer, ok := netStandardToFramework[key]
			return ok && target.Version.Compare(minVer) >= 0
		case NetCoreApp:
			minVer, ok := netStandardToCoreApp[key]
			return ok && target.Version.Compare(minVer) >= 0
		}
	}

	return false
}

// IsCompatible is the method form of the package-level IsCompatible.
func (fw *NuGetFramework) IsCompatible(target *NuGetFramework) bool {
	return IsCompatible(fw, target)
}

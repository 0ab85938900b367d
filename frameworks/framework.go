// Package frameworks parses target framework monikers and decides which
// framework-specific dependency groups and assemblies apply to a project.
//
//	fw, err := frameworks.ParseFramework("net45")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(fw.Framework, fw.Version) // .NETFramework 4.5
package frameworks

import (
	"fmt"
	"strconv"
	"strings"
)

// Framework identifiers.
const (
	NetFramework = ".NETFramework"
	NetStandard  = ".NETStandard"
	NetCoreApp   = ".NETCoreApp"
	Silverlight  = "Silverlight"
	WindowsPhone = "WindowsPhone"
	Any          = "Any"
)

// NuGetFramework is a parsed target framework moniker.
type NuGetFramework struct {
	// Framework is the identifier, e.g. ".NETFramework".
	Framework string

	Version FrameworkVersion

	// Platform is the OS suffix of net5+ monikers ("windows" in net6.0-windows).
	Platform string

	// Profile is the legacy profile name ("Client" in net40-client).
	Profile string

	originalString string
}

// FrameworkVersion is a framework version number.
type FrameworkVersion struct {
	Major    int
	Minor    int
	Build    int
	Revision int
}

// Compare orders two framework versions.
func (v FrameworkVersion) Compare(other FrameworkVersion) int {
	a := [4]int{v.Major, v.Minor, v.Build, v.Revision}
	b := [4]int{other.Major, other.Minor, other.Build, other.Revision}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// String trims trailing zero components: 4.5.0.0 → "4.5", 8.0.0.0 → "8.0".
func (v FrameworkVersion) String() string {
	switch {
	case v.Revision > 0:
		return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Revision)
	case v.Build > 0:
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
	default:
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
}

// AnyFramework matches every project framework. Dependency groups without a
// target framework use it.
var AnyFramework = &NuGetFramework{Framework: Any}

// IsAny reports whether fw is the universal framework.
func (fw *NuGetFramework) IsAny() bool {
	return fw == nil || fw.Framework == Any
}

// Equals compares identifier, version, platform and profile case-insensitively.
func (fw *NuGetFramework) Equals(other *NuGetFramework) bool {
	if fw == nil || other == nil {
		return fw == other
	}
	return strings.EqualFold(fw.Framework, other.Framework) &&
		fw.Version.Compare(other.Version) == 0 &&
		strings.EqualFold(fw.Platform, other.Platform) &&
		strings.EqualFold(fw.Profile, other.Profile)
}

// String returns the moniker the framework was parsed from, or its short folder name.
func (fw *NuGetFramework) String() string {
	if fw == nil {
		return Any
	}
	if fw.originalString != "" {
		return fw.originalString
	}
	return fw.ShortFolderName()
}

// ShortFolderName renders the lib/ folder form, e.g. net45, netstandard2.0, net8.0-windows.
func (fw *NuGetFramework) ShortFolderName() string {
	var s string
	switch fw.Framework {
	case Any:
		return "any"
	case NetFramework:
		s = "net" + compactVersion(fw.Version)
	case NetStandard:
		s = "netstandard" + fw.Version.String()
	case NetCoreApp:
		if fw.Version.Major >= 5 {
			s = "net" + fw.Version.String()
		} else {
			s = "netcoreapp" + fw.Version.String()
		}
	case Silverlight:
		s = "sl" + compactVersion(fw.Version)
	case WindowsPhone:
		s = "wp" + compactVersion(fw.Version)
	default:
		s = strings.ToLower(fw.Framework) + fw.Version.String()
	}
	if fw.Profile != "" {
		s += "-" + strings.ToLower(fw.Profile)
	}
	if fw.Platform != "" {
		s += "-" + strings.ToLower(fw.Platform)
	}
	return s
}

func compactVersion(v FrameworkVersion) string {
	s := fmt.Sprintf("%d%d", v.Major, v.Minor)
	if v.Build > 0 {
		s += strconv.Itoa(v.Build)
	}
	return s
}

var shortIdentifiers = []struct {
	prefix    string
	framework string
}{
	// Longest prefixes first so "netstandard" wins over "net".
	{"netstandard", NetStandard},
	{"netcoreapp", NetCoreApp},
	{"net", NetFramework},
	{"sl", Silverlight},
	{"wp", WindowsPhone},
}

var longIdentifiers = map[string]string{
	".netframework": NetFramework,
	".netstandard":  NetStandard,
	".netcoreapp":   NetCoreApp,
	"silverlight":   Silverlight,
	"windowsphone":  WindowsPhone,
}

// ParseFramework parses short monikers (net45, net4.5, net8.0-windows,
// netstandard2.0, netcoreapp3.1, sl5, wp8, net40-client) and full names
// (.NETFramework,Version=v4.5,Profile=Client). "any" yields AnyFramework.
func ParseFramework(tfm string) (*NuGetFramework, error) {
	text := strings.TrimSpace(tfm)
	if text == "" {
		return nil, fmt.Errorf("framework string cannot be empty")
	}
	if strings.EqualFold(text, "any") {
		return AnyFramework, nil
	}

	var fw *NuGetFramework
	var err error
	if strings.Contains(text, ",") || strings.HasPrefix(text, ".") {
		fw, err = parseLongName(text)
	} else {
		fw, err = parseShortName(text)
	}
	if err != nil {
		return nil, err
	}
	fw.originalString = text
	return fw, nil
}

// MustParseFramework parses a moniker and panics on error.
func MustParseFramework(tfm string) *NuGetFramework {
	fw, err := ParseFramework(tfm)
	if err != nil {
		panic(err)
	}
	return fw
}

func parseShortName(s string) (*NuGetFramework, error) {
	lower := strings.ToLower(s)
	name, suffix, _ := strings.Cut(lower, "-")

	for _, id := range shortIdentifiers {
		versionPart, ok := strings.CutPrefix(name, id.prefix)
		if !ok {
			continue
		}
		if versionPart == "" || versionPart[0] < '0' || versionPart[0] > '9' {
			continue
		}

		dotted := strings.Contains(versionPart, ".")
		v, err := parseVersion(versionPart, !dotted)
		if err != nil {
			return nil, fmt.Errorf("invalid framework %q: %w", s, err)
		}

		fw := &NuGetFramework{Framework: id.framework, Version: v}
		// net5.0 and later are .NETCoreApp; compact net50 stays .NETFramework-shaped.
		if id.framework == NetFramework && dotted && v.Major >= 5 {
			fw.Framework = NetCoreApp
		}
		if suffix != "" {
			if fw.Framework == NetCoreApp && fw.Version.Major >= 5 {
				fw.Platform = suffix
			} else {
				fw.Profile = suffix
			}
		}
		return fw, nil
	}

	return nil, fmt.Errorf("unknown framework %q", s)
}

func parseLongName(s string) (*NuGetFramework, error) {
	parts := strings.Split(s, ",")
	id, ok := longIdentifiers[strings.ToLower(strings.TrimSpace(parts[0]))]
	if !ok {
		return nil, fmt.Errorf("unknown framework %q", s)
	}

	fw := &NuGetFramework{Framework: id}
	for _, part := range parts[1:] {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return nil, fmt.Errorf("invalid framework component %q in %q", part, s)
		}
		switch strings.ToLower(key) {
		case "version":
			v, err := parseVersion(strings.TrimPrefix(strings.ToLower(value), "v"), false)
			if err != nil {
				return nil, fmt.Errorf("invalid framework %q: %w", s, err)
			}
			fw.Version = v
		case "profile":
			fw.Profile = value
		}
	}
	return fw, nil
}

// parseVersion reads "4.5.1" or, when compact, "451" one digit per component.
func parseVersion(s string, compact bool) (FrameworkVersion, error) {
	var parts []string
	if compact {
		for _, r := range s {
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.Split(s, ".")
	}
	if len(parts) == 0 || len(parts) > 4 {
		return FrameworkVersion{}, fmt.Errorf("invalid version %q", s)
	}

	var nums [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return FrameworkVersion{}, fmt.Errorf("invalid version %q", s)
		}
		nums[i] = n
	}
	return FrameworkVersion{Major: nums[0], Minor: nums[1], Build: nums[2], Revision: nums[3]}, nil
}

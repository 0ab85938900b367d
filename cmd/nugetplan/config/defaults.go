package config

import (
	"os"
	"path/filepath"
)

// DefaultConfigLocations returns the list of NuGet.config locations to search
// in precedence order, starting at dir.
func DefaultConfigLocations(dir string) []string {
	var locations []string

	if dir == "" {
		if cwd, err := os.Getwd(); err == nil {
			dir = cwd
		}
	}
	if dir != "" {
		locations = append(locations,
			filepath.Join(dir, "NuGet.config"),
			filepath.Join(dir, ".nuget", "NuGet.config"))
	}

	if p := GetUserConfigPath(); p != "" {
		locations = append(locations, p)
	}

	return locations
}

// FindConfigFile finds the first existing NuGet.config file
func FindConfigFile(dir string) string {
	for _, loc := range DefaultConfigLocations(dir) {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// GetUserConfigPath returns the user-level NuGet.config path
func GetUserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".nuget", "NuGet", "NuGet.Config")
}

// NewDefaultConfig creates a config with no sources and the default policy.
func NewDefaultConfig() *NuGetConfig {
	return &NuGetConfig{
		PackageSources: &PackageSources{},
		Config: &Section{
			Add: []Item{{Key: KeyDependencyVersion, Value: "Lowest"}},
		},
	}
}

// Package config implements NuGet.config loading for the planner.
package config

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Keys read from the <config> section.
const (
	KeyDependencyVersion = "dependencyVersion"
	KeyAllowPrerelease   = "allowPrerelease"
	KeyRemoveOrphans     = "removeOrphans"
	KeyScriptHost        = "scriptHost"
	KeyRepositoryPath    = "repositoryPath"
)

// NuGetConfig represents a NuGet.config file
type NuGetConfig struct {
	XMLName                xml.Name                `xml:"configuration"`
	PackageSources         *PackageSources         `xml:"packageSources"`
	DisabledPackageSources *DisabledPackageSources `xml:"disabledPackageSources,omitempty"`
	Config                 *Section                `xml:"config"`
}

// DisabledPackageSources contains disabled package source definitions
type DisabledPackageSources struct {
	Add []DisabledPackageSource `xml:"add"`
}

// DisabledPackageSource represents a disabled package source
type DisabledPackageSource struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

// PackageSources contains package source definitions. Value is the path of
// a JSON feed document.
type PackageSources struct {
	Clear bool            `xml:"clear"`
	Add   []PackageSource `xml:"add"`
}

// PackageSource represents a package source
type PackageSource struct {
	Key     string `xml:"key,attr"`
	Value   string `xml:"value,attr"`
	Enabled string `xml:"enabled,attr,omitempty"`
}

// Section contains configuration settings
type Section struct {
	Clear bool   `xml:"clear"`
	Add   []Item `xml:"add"`
}

// Item represents a configuration key-value pair
type Item struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

// LoadNuGetConfig loads a NuGet.config file
func LoadNuGetConfig(path string) (*NuGetConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseNuGetConfig(f)
}

// ParseNuGetConfig parses NuGet.config XML from a reader
func ParseNuGetConfig(r io.Reader) (*NuGetConfig, error) {
	var config NuGetConfig
	decoder := xml.NewDecoder(r)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config XML: %w", err)
	}

	return &config, nil
}

// GetConfigValue returns the value of key in the <config> section, or "".
// Keys match case-insensitively.
func (c *NuGetConfig) GetConfigValue(key string) string {
	if c.Config == nil {
		return ""
	}
	for _, item := range c.Config.Add {
		if strings.EqualFold(item.Key, key) {
			return item.Value
		}
	}
	return ""
}

// IsSourceDisabled reports whether key is listed in <disabledPackageSources>
// with value true, or carries enabled="false" itself.
func (c *NuGetConfig) IsSourceDisabled(key string) bool {
	if c.DisabledPackageSources != nil {
		for _, d := range c.DisabledPackageSources.Add {
			if strings.EqualFold(d.Key, key) && strings.EqualFold(d.Value, "true") {
				return true
			}
		}
	}
	if c.PackageSources != nil {
		for _, s := range c.PackageSources.Add {
			if strings.EqualFold(s.Key, key) && strings.EqualFold(s.Enabled, "false") {
				return true
			}
		}
	}
	return false
}

// EnabledPackageSources returns the sources that are not disabled, in file order.
func (c *NuGetConfig) EnabledPackageSources() []PackageSource {
	if c.PackageSources == nil {
		return nil
	}
	var out []PackageSource
	for _, s := range c.PackageSources.Add {
		if !c.IsSourceDisabled(s.Key) {
			out = append(out, s)
		}
	}
	return out
}

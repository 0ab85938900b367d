package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/willibrandon/nugetplan/version"
)

const sampleConfig = `<?xml version="1.0" encoding="utf-8"?>
<configuration>
  <packageSources>
    <add key="local" value="feeds\local.json" />
    <add key="shared" value="/srv/feeds/shared.json" />
    <add key="old" value="feeds/old.json" enabled="false" />
  </packageSources>
  <disabledPackageSources>
    <add key="shared" value="true" />
  </disabledPackageSources>
  <config>
    <add key="dependencyVersion" value="HighestMinor" />
    <add key="allowPrerelease" value="true" />
    <add key="scriptHost" value="nugetplan-scripthost --verbose" />
    <add key="repositoryPath" value="lib/packages" />
  </config>
</configuration>`

func TestParseNuGetConfig(t *testing.T) {
	config, err := ParseNuGetConfig(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("ParseNuGetConfig() error = %v", err)
	}

	if config.PackageSources == nil {
		t.Fatal("PackageSources is nil")
	}
	if len(config.PackageSources.Add) != 3 {
		t.Errorf("expected 3 package sources, got %d", len(config.PackageSources.Add))
	}

	if got := config.GetConfigValue("DEPENDENCYVERSION"); got != "HighestMinor" {
		t.Errorf("GetConfigValue() = %q, want %q", got, "HighestMinor")
	}

	enabled := config.EnabledPackageSources()
	if len(enabled) != 1 || enabled[0].Key != "local" {
		t.Errorf("EnabledPackageSources() = %+v, want only local", enabled)
	}
}

func TestParseNuGetConfig_Invalid(t *testing.T) {
	if _, err := ParseNuGetConfig(strings.NewReader("<configuration>")); err == nil {
		t.Error("expected error for truncated XML")
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".nuget", "NuGet.config")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("<configuration />"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := FindConfigFile(dir); got != path {
		t.Errorf("FindConfigFile() = %q, want %q", got, path)
	}

	root := filepath.Join(dir, "NuGet.config")
	if err := os.WriteFile(root, []byte(sampleConfig), 0644); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(dir); got != root {
		t.Errorf("FindConfigFile() = %q, want %q (directory config wins)", got, root)
	}
}

func TestNewSettings(t *testing.T) {
	config, err := ParseNuGetConfig(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatal(err)
	}

	configFile := filepath.Join("/work", "NuGet.config")
	s, err := NewSettings(config, configFile)
	if err != nil {
		t.Fatalf("NewSettings() error = %v", err)
	}

	if len(s.Sources) != 1 {
		t.Fatalf("Sources = %+v, want 1", s.Sources)
	}
	if want := filepath.Join("/work", "feeds", "local.json"); s.Sources[0].Path != want {
		t.Errorf("source path = %q, want %q", s.Sources[0].Path, want)
	}
	if s.DependencyVersion != version.HighestMinor {
		t.Errorf("DependencyVersion = %v, want HighestMinor", s.DependencyVersion)
	}
	if !s.AllowPrerelease {
		t.Error("AllowPrerelease = false, want true")
	}
	if s.RemoveOrphans {
		t.Error("RemoveOrphans = true, want false")
	}
	if len(s.ScriptHost) != 2 || s.ScriptHost[0] != "nugetplan-scripthost" {
		t.Errorf("ScriptHost = %q", s.ScriptHost)
	}
	if want := filepath.Join("/work", "lib", "packages"); s.RepositoryPath != want {
		t.Errorf("RepositoryPath = %q, want %q", s.RepositoryPath, want)
	}
}

func TestNewSettings_Errors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"bad policy", `<configuration><config><add key="dependencyVersion" value="Newest" /></config></configuration>`},
		{"bad bool", `<configuration><config><add key="allowPrerelease" value="sometimes" /></config></configuration>`},
		{"empty source", `<configuration><packageSources><add key="empty" value="" /></packageSources></configuration>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ParseNuGetConfig(strings.NewReader(tt.xml))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := NewSettings(config, ""); err == nil {
				t.Errorf("NewSettings() with %s: expected error", tt.xml)
			}
		})
	}
}

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	s, err := LoadSettings("", t.TempDir())
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.ConfigFile != "" || len(s.Sources) != 0 {
		t.Errorf("LoadSettings() = %+v, want defaults", s)
	}
	if s.DependencyVersion != version.Lowest {
		t.Errorf("DependencyVersion = %v, want Lowest", s.DependencyVersion)
	}
}

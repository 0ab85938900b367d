package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/willibrandon/nugetplan/version"
)

// Source is an enabled package source with its feed path made absolute.
type Source struct {
	Name string
	Path string
}

// Settings is the resolved configuration the commands run with.
type Settings struct {
	// ConfigFile is the NuGet.config the settings came from, or "".
	ConfigFile        string
	Sources           []Source
	DependencyVersion version.DependencyVersion
	AllowPrerelease   bool
	RemoveOrphans     bool

	// ScriptHost is the command line of the install script host, split on
	// whitespace. Empty disables scripts.
	ScriptHost []string

	// RepositoryPath overrides the solution packages folder.
	RepositoryPath string
}

// NewSettings builds Settings from cfg. Relative paths are taken relative to
// the directory of configFile.
func NewSettings(cfg *NuGetConfig, configFile string) (*Settings, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	base := ""
	if configFile != "" {
		base = filepath.Dir(configFile)
	}

	s := &Settings{ConfigFile: configFile}
	for _, src := range cfg.EnabledPackageSources() {
		if src.Value == "" {
			return nil, fmt.Errorf("package source %q has no value", src.Key)
		}
		s.Sources = append(s.Sources, Source{Name: src.Key, Path: resolvePath(base, src.Value)})
	}

	var err error
	if s.DependencyVersion, err = version.ParseDependencyVersion(cfg.GetConfigValue(KeyDependencyVersion)); err != nil {
		return nil, fmt.Errorf("config %s: %w", KeyDependencyVersion, err)
	}
	if s.AllowPrerelease, err = parseBool(cfg, KeyAllowPrerelease); err != nil {
		return nil, err
	}
	if s.RemoveOrphans, err = parseBool(cfg, KeyRemoveOrphans); err != nil {
		return nil, err
	}
	s.ScriptHost = strings.Fields(cfg.GetConfigValue(KeyScriptHost))
	if p := cfg.GetConfigValue(KeyRepositoryPath); p != "" {
		s.RepositoryPath = resolvePath(base, p)
	}
	return s, nil
}

// LoadSettings reads path, or the first NuGet.config found from dir when
// path is empty. Without any config file the defaults apply.
func LoadSettings(path, dir string) (*Settings, error) {
	if path == "" {
		path = FindConfigFile(dir)
	}
	if path == "" {
		return NewSettings(nil, "")
	}
	cfg, err := LoadNuGetConfig(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return NewSettings(cfg, abs)
}

func parseBool(cfg *NuGetConfig, key string) (bool, error) {
	v := cfg.GetConfigValue(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config %s: invalid boolean %q", key, v)
	}
	return b, nil
}

func resolvePath(base, p string) string {
	p = filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
	if filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

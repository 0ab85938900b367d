package core

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/willibrandon/nugetplan/frameworks"
	"github.com/willibrandon/nugetplan/version"
)

// PackagesConfigFileName is the per-project installed package list.
const PackagesConfigFileName = "packages.config"

type packagesConfigXML struct {
	XMLName  xml.Name              `xml:"packages"`
	Packages []packagesConfigEntry `xml:"package"`
}

type packagesConfigEntry struct {
	ID              string `xml:"id,attr"`
	Version         string `xml:"version,attr"`
	TargetFramework string `xml:"targetFramework,attr,omitempty"`
	AllowedVersions string `xml:"allowedVersions,attr,omitempty"`
}

// PackagesConfigRepository is a LocalRepository persisted as a packages.config
// file. Every mutation rewrites the file; removing the last package deletes it.
type PackagesConfigRepository struct {
	path            string
	targetFramework *frameworks.NuGetFramework

	mu       sync.RWMutex
	packages map[string]packagesConfigEntry
	order    []string
}

// OpenPackagesConfig loads path, treating a missing file as an empty
// repository. targetFramework is recorded on packages added later.
func OpenPackagesConfig(path string, targetFramework *frameworks.NuGetFramework) (*PackagesConfigRepository, error) {
	r := &PackagesConfigRepository{
		path:            path,
		targetFramework: targetFramework,
		packages:        make(map[string]packagesConfigEntry),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc packagesConfigXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, e := range doc.Packages {
		identity, err := ParseIdentity(e.ID, e.Version)
		if err != nil {
			return nil, fmt.Errorf("parse %s: package %s: %w", path, e.ID, err)
		}
		if e.AllowedVersions != "" {
			if _, err := version.ParseVersionSpec(e.AllowedVersions); err != nil {
				return nil, fmt.Errorf("parse %s: package %s: allowedVersions: %w", path, e.ID, err)
			}
		}
		key := identity.Key()
		if _, dup := r.packages[key]; !dup {
			r.order = append(r.order, key)
		}
		r.packages[key] = e
	}
	return r, nil
}

// Path returns the packages.config location.
func (r *PackagesConfigRepository) Path() string {
	return r.path
}

// AllowedVersions returns the allowedVersions constraint recorded for id, if any.
func (r *PackagesConfigRepository) AllowedVersions(id string) *version.VersionSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, key := range r.order {
		e := r.packages[key]
		if strings.EqualFold(e.ID, id) && e.AllowedVersions != "" {
			spec, err := version.ParseVersionSpec(e.AllowedVersions)
			if err == nil {
				return spec
			}
		}
	}
	return nil
}

// IsInstalled implements LocalRepository.
func (r *PackagesConfigRepository) IsInstalled(identity PackageIdentity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.packages[identity.Key()]
	return ok
}

// GetInstalledPackages implements LocalRepository.
func (r *PackagesConfigRepository) GetInstalledPackages() []PackageIdentity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PackageIdentity, 0, len(r.packages))
	for _, key := range r.order {
		e := r.packages[key]
		identity, err := ParseIdentity(e.ID, e.Version)
		if err != nil {
			continue
		}
		out = append(out, identity)
	}
	sortIdentities(out)
	return out
}

// AddPackage implements LocalRepository.
func (r *PackagesConfigRepository) AddPackage(identity PackageIdentity) error {
	if identity.Version == nil {
		return fmt.Errorf("add %s: version is required", identity.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := identity.Key()
	if _, ok := r.packages[key]; ok {
		return nil
	}
	entry := packagesConfigEntry{ID: identity.ID, Version: identity.Version.ToNormalizedString()}
	if !r.targetFramework.IsAny() {
		entry.TargetFramework = r.targetFramework.ShortFolderName()
	}
	r.packages[key] = entry
	r.order = append(r.order, key)

	if err := r.save(); err != nil {
		delete(r.packages, key)
		r.order = r.order[:len(r.order)-1]
		return err
	}
	return nil
}

// RemovePackage implements LocalRepository.
func (r *PackagesConfigRepository) RemovePackage(identity PackageIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := identity.Key()
	entry, ok := r.packages[key]
	if !ok {
		return fmt.Errorf("remove %s: %w", identity, ErrPackageNotFound)
	}
	prevOrder := r.order
	delete(r.packages, key)
	r.order = removeKey(r.order, key)

	if err := r.save(); err != nil {
		r.packages[key] = entry
		r.order = prevOrder
		return err
	}
	return nil
}

// must hold lock
func (r *PackagesConfigRepository) save() error {
	if len(r.packages) == 0 {
		if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", r.path, err)
		}
		return nil
	}

	doc := packagesConfigXML{}
	for _, key := range r.order {
		doc.Packages = append(doc.Packages, r.packages[key])
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	out := append([]byte(xml.Header), data...)
	out = append(out, '\n')
	if err := os.WriteFile(r.path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	return nil
}

func removeKey(keys []string, key string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}

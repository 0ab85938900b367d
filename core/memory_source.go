package core

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/willibrandon/nugetplan/frameworks"
	"github.com/willibrandon/nugetplan/version"
)

// MemorySource is a PackageSource over packages held in memory. Feed files
// load into it, and tests build graphs with it directly.
type MemorySource struct {
	name string

	mu       sync.RWMutex
	packages map[string][]*Package // by IDKey, ascending version
}

// NewMemorySource creates an empty source.
func NewMemorySource(name string) *MemorySource {
	return &MemorySource{
		name:     name,
		packages: make(map[string][]*Package),
	}
}

// Name implements PackageSource.
func (s *MemorySource) Name() string {
	return s.name
}

// AddPackage adds pkg, replacing any package with the same identity.
func (s *MemorySource) AddPackage(pkg *Package) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := IDKey(pkg.Identity.ID)
	list := s.packages[key]
	for i, existing := range list {
		if existing.Identity.Equals(pkg.Identity) {
			list[i] = pkg
			return
		}
	}
	list = append(list, pkg)
	slices.SortFunc(list, func(a, b *Package) int {
		return version.Compare(a.Identity.Version, b.Identity.Version)
	})
	s.packages[key] = list
}

// Packages returns every package, grouped by id.
func (s *MemorySource) Packages() []*Package {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.packages))
	for k := range s.packages {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var out []*Package
	for _, k := range keys {
		out = append(out, s.packages[k]...)
	}
	return out
}

// FindPackage implements PackageSource.
func (s *MemorySource) FindPackage(_ context.Context, id string, spec *version.VersionSpec) (*PackageIdentity, error) {
	versions := s.versions(id)
	if len(versions) == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrPackageNotFound)
	}
	best := BestMatch(versions, spec)
	if best == nil {
		return nil, fmt.Errorf("%s %s: %w", id, spec, ErrPackageNotFound)
	}
	identity := s.lookup(PackageIdentity{ID: id, Version: best}).Identity
	return &identity, nil
}

// GetDependencies implements PackageSource.
func (s *MemorySource) GetDependencies(_ context.Context, identity PackageIdentity, targetFramework *frameworks.NuGetFramework) ([]PackageDependency, error) {
	pkg := s.lookup(identity)
	if pkg == nil {
		return nil, fmt.Errorf("%s: %w", identity, ErrPackageNotFound)
	}
	return SelectDependencies(pkg.DependencySets, targetFramework), nil
}

// GetAvailableVersions implements PackageSource.
func (s *MemorySource) GetAvailableVersions(_ context.Context, id string) ([]*version.SemanticVersion, error) {
	versions := s.versions(id)
	if len(versions) == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrPackageNotFound)
	}
	return versions, nil
}

// GetContent implements ContentSource.
func (s *MemorySource) GetContent(_ context.Context, identity PackageIdentity) (*PackageContent, error) {
	pkg := s.lookup(identity)
	if pkg == nil {
		return nil, fmt.Errorf("%s: %w", identity, ErrPackageNotFound)
	}
	content := pkg.Content
	return &content, nil
}

func (s *MemorySource) versions(id string) []*version.SemanticVersion {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.packages[IDKey(id)]
	out := make([]*version.SemanticVersion, len(list))
	for i, pkg := range list {
		out[i] = pkg.Identity.Version
	}
	return out
}

func (s *MemorySource) lookup(identity PackageIdentity) *Package {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pkg := range s.packages[IDKey(identity.ID)] {
		if version.Compare(pkg.Identity.Version, identity.Version) == 0 {
			return pkg
		}
	}
	return nil
}

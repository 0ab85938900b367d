package core

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/willibrandon/nugetplan/frameworks"
	"github.com/willibrandon/nugetplan/version"
)

// pkg builds a package whose universal dependency set is deps, each written
// as "Id" or "Id spec".
func pkg(t *testing.T, id, ver string, deps ...string) *Package {
	t.Helper()
	identity, err := ParseIdentity(id, ver)
	if err != nil {
		t.Fatalf("ParseIdentity(%q, %q) error = %v", id, ver, err)
	}
	p := &Package{Identity: identity}
	if len(deps) == 0 {
		return p
	}
	set := DependencySet{}
	for _, d := range deps {
		depID, specText, _ := strings.Cut(d, " ")
		dep := PackageDependency{ID: depID}
		if specText != "" {
			dep.VersionSpec = version.MustParseSpec(specText)
		}
		set.Dependencies = append(set.Dependencies, dep)
	}
	p.DependencySets = []DependencySet{set}
	return p
}

func identity(id, ver string) PackageIdentity {
	return NewPackageIdentity(id, version.MustParse(ver))
}

// countingSource records how often each method reaches it.
type countingSource struct {
	inner PackageSource
	err   error

	finds    atomic.Int32
	deps     atomic.Int32
	versions atomic.Int32
}

func (c *countingSource) Name() string { return c.inner.Name() }

func (c *countingSource) FindPackage(ctx context.Context, id string, spec *version.VersionSpec) (*PackageIdentity, error) {
	c.finds.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.FindPackage(ctx, id, spec)
}

func (c *countingSource) GetDependencies(ctx context.Context, identity PackageIdentity, fw *frameworks.NuGetFramework) ([]PackageDependency, error) {
	c.deps.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.GetDependencies(ctx, identity, fw)
}

func (c *countingSource) GetAvailableVersions(ctx context.Context, id string) ([]*version.SemanticVersion, error) {
	c.versions.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.inner.GetAvailableVersions(ctx, id)
}

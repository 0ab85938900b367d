// Package core defines the package model shared by the resolver and executor:
// package identities and dependencies, the package source contract consumed
// while planning, and the local repositories that record what is installed.
package core

import (
	"fmt"
	"path"
	"strings"

	"github.com/willibrandon/nugetplan/frameworks"
	"github.com/willibrandon/nugetplan/version"
)

// PackageIdentity is a package id and exact version. Ids are case-insensitive.
type PackageIdentity struct {
	ID      string
	Version *version.SemanticVersion
}

// NewPackageIdentity creates a package identity.
func NewPackageIdentity(id string, ver *version.SemanticVersion) PackageIdentity {
	return PackageIdentity{ID: id, Version: ver}
}

// ParseIdentity builds an identity from an id and a version string.
func ParseIdentity(id, ver string) (PackageIdentity, error) {
	v, err := version.Parse(ver)
	if err != nil {
		return PackageIdentity{}, err
	}
	return PackageIdentity{ID: id, Version: v}, nil
}

// Equals reports whether both ids match case-insensitively and the versions are equal.
func (p PackageIdentity) Equals(other PackageIdentity) bool {
	return strings.EqualFold(p.ID, other.ID) && version.Compare(p.Version, other.Version) == 0
}

// Key returns a map key that is equal for equal identities: the id and the
// release labels are folded and metadata is left out, as in version.Compare.
func (p PackageIdentity) Key() string {
	if p.Version == nil {
		return IDKey(p.ID)
	}
	v := p.Version
	key := fmt.Sprintf("%s|%d.%d.%d.%d", IDKey(p.ID), v.Major, v.Minor, v.Patch, v.Revision)
	if v.IsPrerelease() {
		key += "-" + strings.ToLower(v.Release())
	}
	return key
}

func (p PackageIdentity) String() string {
	if p.Version == nil {
		return p.ID
	}
	return p.ID + " " + p.Version.String()
}

// IDKey folds a package id for case-insensitive lookups.
func IDKey(id string) string {
	return strings.ToLower(id)
}

// PackageDependency is a dependency on another package id within a version spec.
type PackageDependency struct {
	ID          string
	VersionSpec *version.VersionSpec
}

func (d PackageDependency) String() string {
	if d.VersionSpec == nil {
		return d.ID
	}
	return d.ID + " " + d.VersionSpec.String()
}

// DependencySet groups dependencies for a target framework. A nil
// TargetFramework applies to every framework.
type DependencySet struct {
	TargetFramework *frameworks.NuGetFramework
	Dependencies    []PackageDependency
}

// AssemblyReference is an assembly shipped in a package, e.g. lib/net45/Foo.dll.
type AssemblyReference struct {
	Path string

	// TargetFramework is the lib/ folder framework; nil for assemblies directly under lib/.
	TargetFramework *frameworks.NuGetFramework
}

// Name returns the name the project references the assembly by: the file
// name without its .dll or .exe extension.
func (r AssemblyReference) Name() string {
	base := path.Base(strings.ReplaceAll(r.Path, `\`, "/"))
	if ext := path.Ext(base); strings.EqualFold(ext, ".dll") || strings.EqualFold(ext, ".exe") {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// ContentFile is a file a package adds to the project tree.
type ContentFile struct {
	// Path is relative to the project directory.
	Path    string
	Content []byte
}

// PackageContent is what a package contributes to a project when installed.
type PackageContent struct {
	References []AssemblyReference
	Files      []ContentFile

	// InstallScript and UninstallScript are package-relative script paths, empty when absent.
	InstallScript   string
	UninstallScript string
}

// Package is a package available from a source.
type Package struct {
	Identity       PackageIdentity
	DependencySets []DependencySet
	Content        PackageContent
}

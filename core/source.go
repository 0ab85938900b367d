package core

import (
	"context"
	"errors"

	"github.com/willibrandon/nugetplan/frameworks"
	"github.com/willibrandon/nugetplan/version"
)

// ErrPackageNotFound is wrapped by sources when an id or version is absent.
var ErrPackageNotFound = errors.New("package not found")

// PackageSource answers the package graph queries the resolver needs.
// Implementations must be safe for concurrent use.
type PackageSource interface {
	// Name identifies the source in logs and metrics.
	Name() string

	// FindPackage returns the best version of id within spec: the highest
	// stable match, or the highest pre-release match when spec names a
	// pre-release or no stable version matches. A nil spec admits every
	// version.
	FindPackage(ctx context.Context, id string, spec *version.VersionSpec) (*PackageIdentity, error)

	// GetDependencies returns the dependency set of identity that applies to
	// targetFramework.
	GetDependencies(ctx context.Context, identity PackageIdentity, targetFramework *frameworks.NuGetFramework) ([]PackageDependency, error)

	// GetAvailableVersions lists every version of id in ascending order.
	GetAvailableVersions(ctx context.Context, id string) ([]*version.SemanticVersion, error)
}

// ContentSource provides the files and assemblies a package installs.
type ContentSource interface {
	GetContent(ctx context.Context, identity PackageIdentity) (*PackageContent, error)
}

// BestMatch applies the FindPackage selection rule to versions.
func BestMatch(versions []*version.SemanticVersion, spec *version.VersionSpec) *version.SemanticVersion {
	if v := version.SelectVersion(spec, versions, version.Highest, false); v != nil {
		return v
	}
	return version.SelectVersion(spec, versions, version.Highest, true)
}

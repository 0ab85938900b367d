package resolver

import (
	"fmt"
	"strings"

	"github.com/willibrandon/nugetplan/core"
	"github.com/willibrandon/nugetplan/version"
)

// Constraint is a version requirement on a package id and who imposed it.
type Constraint struct {
	Spec       *version.VersionSpec
	RequiredBy string
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s required by %s", c.Spec, c.RequiredBy)
}

// ResolverConflictError reports a package id whose accumulated constraints
// admit no available version.
type ResolverConflictError struct {
	ID          string
	Target      string
	Constraints []Constraint
}

func (e *ResolverConflictError) Error() string {
	parts := make([]string, len(e.Constraints))
	for i, c := range e.Constraints {
		parts[i] = c.String()
	}
	return fmt.Sprintf("unable to resolve %s for %s: no version satisfies %s", e.ID, e.Target, strings.Join(parts, "; "))
}

// DependencyConflictError reports an uninstall blocked by installed dependents.
type DependencyConflictError struct {
	Package    core.PackageIdentity
	Target     string
	Dependents []core.PackageIdentity
}

func (e *DependencyConflictError) Error() string {
	names := make([]string, len(e.Dependents))
	for i, d := range e.Dependents {
		names[i] = d.String()
	}
	return fmt.Sprintf("unable to uninstall %s from %s: required by %s", e.Package, e.Target, strings.Join(names, ", "))
}

// PackageNotFoundError reports a package id or version absent from every
// configured source.
type PackageNotFoundError struct {
	ID         string
	Spec       *version.VersionSpec
	RequiredBy string
}

func (e *PackageNotFoundError) Error() string {
	msg := "unable to find package " + e.ID
	if e.Spec != nil {
		msg += " " + e.Spec.String()
	}
	if e.RequiredBy != "" {
		msg += " required by " + e.RequiredBy
	}
	return msg
}

func (e *PackageNotFoundError) Unwrap() error { return core.ErrPackageNotFound }

// PackageNotInstalledError reports an uninstall or update of a package the
// target does not have.
type PackageNotInstalledError struct {
	ID      string
	Version *version.SemanticVersion
	Target  string
}

func (e *PackageNotInstalledError) Error() string {
	if e.Version != nil {
		return fmt.Sprintf("package %s %s is not installed in %s", e.ID, e.Version, e.Target)
	}
	return fmt.Sprintf("package %s is not installed in %s", e.ID, e.Target)
}

// CircularDependencyError reports a dependency chain that leads back to
// itself. Path starts and ends with the same package.
type CircularDependencyError struct {
	Path []string
}

func (e *CircularDependencyError) Error() string {
	return "circular dependency detected: " + strings.Join(e.Path, " => ")
}

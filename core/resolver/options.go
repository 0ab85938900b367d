package resolver

import (
	"github.com/willibrandon/nugetplan/observability"
	"github.com/willibrandon/nugetplan/version"
)

// Option configures an ActionResolver.
type Option func(*ActionResolver)

// WithLogger sets the logger. The default discards output.
func WithLogger(logger observability.Logger) Option {
	return func(r *ActionResolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDependencyVersion sets the policy used to pick dependency versions.
// The default is version.Lowest.
func WithDependencyVersion(policy version.DependencyVersion) Option {
	return func(r *ActionResolver) { r.policy = policy }
}

// WithAllowPrerelease lets pre-release versions be selected.
func WithAllowPrerelease(allow bool) Option {
	return func(r *ActionResolver) { r.allowPrerelease = allow }
}

// WithIgnoreDependencies plans requested packages without their dependencies.
func WithIgnoreDependencies(ignore bool) Option {
	return func(r *ActionResolver) { r.ignoreDependencies = ignore }
}

// WithForceRemove uninstalls the dependents of an uninstalled package
// instead of failing with a DependencyConflictError.
func WithForceRemove(force bool) Option {
	return func(r *ActionResolver) { r.forceRemove = force }
}

// WithRemoveDependencies uninstalls dependents like WithForceRemove and also
// removes dependencies left without a dependent.
func WithRemoveDependencies(remove bool) Option {
	return func(r *ActionResolver) { r.removeDependencies = remove }
}

// WithRemoveOrphans uninstalls dependencies of a replaced package version
// that nothing depends on any more.
func WithRemoveOrphans(remove bool) Option {
	return func(r *ActionResolver) { r.removeOrphans = remove }
}

package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/willibrandon/nugetplan/frameworks"
	"github.com/willibrandon/nugetplan/observability"
	"github.com/willibrandon/nugetplan/version"
)

// AggregateSource combines several sources. A package is missing only when
// every source reports it missing.
type AggregateSource struct {
	sources []PackageSource
	logger  observability.Logger

	// IgnoreFailingSources skips sources returning errors other than
	// ErrPackageNotFound instead of failing the call.
	IgnoreFailingSources bool
}

// NewAggregateSource combines sources in priority order.
func NewAggregateSource(logger observability.Logger, sources ...PackageSource) *AggregateSource {
	if logger == nil {
		logger = observability.NewNullLogger()
	}
	return &AggregateSource{sources: sources, logger: logger}
}

// Name implements PackageSource.
func (a *AggregateSource) Name() string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name()
	}
	return "aggregate(" + strings.Join(names, ",") + ")"
}

// Sources returns the combined sources in priority order.
func (a *AggregateSource) Sources() []PackageSource {
	return a.sources
}

// FindPackage returns the best match across every source.
func (a *AggregateSource) FindPackage(ctx context.Context, id string, spec *version.VersionSpec) (*PackageIdentity, error) {
	var found []*version.SemanticVersion
	byVersion := make(map[string]*PackageIdentity)

	for _, s := range a.sources {
		identity, err := s.FindPackage(ctx, id, spec)
		if err != nil {
			if err := a.check(ctx, s, err); err != nil {
				return nil, err
			}
			continue
		}
		key := identity.Version.ToNormalizedString()
		if _, ok := byVersion[key]; !ok {
			byVersion[key] = identity
			found = append(found, identity.Version)
		}
	}

	best := BestMatch(found, spec)
	if best == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrPackageNotFound)
	}
	return byVersion[best.ToNormalizedString()], nil
}

// GetDependencies asks sources in order and returns the first answer.
func (a *AggregateSource) GetDependencies(ctx context.Context, identity PackageIdentity, targetFramework *frameworks.NuGetFramework) ([]PackageDependency, error) {
	for _, s := range a.sources {
		deps, err := s.GetDependencies(ctx, identity, targetFramework)
		if err == nil {
			return deps, nil
		}
		if err := a.check(ctx, s, err); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %w", identity, ErrPackageNotFound)
}

// GetAvailableVersions returns the union of every source's versions.
func (a *AggregateSource) GetAvailableVersions(ctx context.Context, id string) ([]*version.SemanticVersion, error) {
	seen := make(map[string]bool)
	var out []*version.SemanticVersion

	for _, s := range a.sources {
		versions, err := s.GetAvailableVersions(ctx, id)
		if err != nil {
			if err := a.check(ctx, s, err); err != nil {
				return nil, err
			}
			continue
		}
		for _, v := range versions {
			if key := v.ToNormalizedString(); !seen[key] {
				seen[key] = true
				out = append(out, v)
			}
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrPackageNotFound)
	}
	slices.SortFunc(out, version.Compare)
	return out, nil
}

// GetContent returns content from the first source that has the package.
func (a *AggregateSource) GetContent(ctx context.Context, identity PackageIdentity) (*PackageContent, error) {
	for _, s := range a.sources {
		cs, ok := s.(ContentSource)
		if !ok {
			continue
		}
		content, err := cs.GetContent(ctx, identity)
		if err == nil {
			return content, nil
		}
		if err := a.check(ctx, s, err); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %w", identity, ErrPackageNotFound)
}

// check filters a per-source error: nil means try the next source.
func (a *AggregateSource) check(ctx context.Context, s PackageSource, err error) error {
	if errors.Is(err, ErrPackageNotFound) {
		return nil
	}
	if a.IgnoreFailingSources && ctx.Err() == nil {
		a.logger.WarnContext(ctx, "Ignoring failing source {Source}: {Error}", s.Name(), err.Error())
		return nil
	}
	return fmt.Errorf("source %s: %w", s.Name(), err)
}

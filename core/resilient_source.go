package core

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/trace"

	"github.com/willibrandon/nugetplan/frameworks"
	"github.com/willibrandon/nugetplan/observability"
	"github.com/willibrandon/nugetplan/resilience"
	"github.com/willibrandon/nugetplan/version"
)

// ResilientSource guards a source with a circuit breaker and records a span
// and lookup metrics for every call. ErrPackageNotFound is an answer, not a
// failure, and never trips the breaker.
type ResilientSource struct {
	inner   PackageSource
	breaker *resilience.CircuitBreaker
}

// NewResilientSource wraps inner with a breaker named after the source.
func NewResilientSource(inner PackageSource, config resilience.CircuitBreakerConfig) *ResilientSource {
	return &ResilientSource{
		inner:   inner,
		breaker: resilience.NewCircuitBreaker(inner.Name(), config),
	}
}

// Name implements PackageSource.
func (r *ResilientSource) Name() string {
	return r.inner.Name()
}

// Breaker exposes the circuit breaker guarding the source.
func (r *ResilientSource) Breaker() *resilience.CircuitBreaker {
	return r.breaker
}

// FindPackage implements PackageSource.
func (r *ResilientSource) FindPackage(ctx context.Context, id string, spec *version.VersionSpec) (*PackageIdentity, error) {
	var out *PackageIdentity
	err := r.call(ctx, "find_package", id, func(ctx context.Context) (err error) {
		out, err = r.inner.FindPackage(ctx, id, spec)
		return err
	})
	return out, err
}

// GetDependencies implements PackageSource.
func (r *ResilientSource) GetDependencies(ctx context.Context, identity PackageIdentity, targetFramework *frameworks.NuGetFramework) ([]PackageDependency, error) {
	var out []PackageDependency
	err := r.call(ctx, "get_dependencies", identity.ID, func(ctx context.Context) (err error) {
		out, err = r.inner.GetDependencies(ctx, identity, targetFramework)
		return err
	})
	return out, err
}

// GetAvailableVersions implements PackageSource.
func (r *ResilientSource) GetAvailableVersions(ctx context.Context, id string) ([]*version.SemanticVersion, error) {
	var out []*version.SemanticVersion
	err := r.call(ctx, "get_versions", id, func(ctx context.Context) (err error) {
		out, err = r.inner.GetAvailableVersions(ctx, id)
		return err
	})
	return out, err
}

// GetContent implements ContentSource.
func (r *ResilientSource) GetContent(ctx context.Context, identity PackageIdentity) (*PackageContent, error) {
	cs, ok := r.inner.(ContentSource)
	if !ok {
		return nil, ErrPackageNotFound
	}
	var out *PackageContent
	err := r.call(ctx, "get_content", identity.ID, func(ctx context.Context) (err error) {
		out, err = cs.GetContent(ctx, identity)
		return err
	})
	return out, err
}

func (r *ResilientSource) call(ctx context.Context, op, id string, fn func(context.Context) error) error {
	ctx, span := observability.StartSourceLookupSpan(ctx, r.inner.Name(), op, id)

	var answer error
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		answer = fn(ctx)
		if errors.Is(answer, ErrPackageNotFound) {
			return nil
		}
		return answer
	})
	if err == nil {
		err = answer
	}

	status := "success"
	switch {
	case errors.Is(err, ErrPackageNotFound):
		status = "not_found"
		span.AddEvent("not_found", trace.WithAttributes(observability.AttrPackageID.String(id)))
		span.End()
	case err != nil:
		status = "failure"
		observability.EndSpanWithError(span, err)
	default:
		observability.EndSpanWithError(span, nil)
	}
	observability.SourceLookupsTotal.WithLabelValues(r.inner.Name(), op, status).Inc()
	return err
}

package core

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/willibrandon/nugetplan/cache"
	"github.com/willibrandon/nugetplan/frameworks"
	"github.com/willibrandon/nugetplan/observability"
	"github.com/willibrandon/nugetplan/version"
)

// CachedSource memoizes another source's metadata answers. Concurrent
// lookups of the same key share one call to the underlying source.
//
// The TTL comes from the cache.SourceCacheContext on the call's context,
// falling back to cache.DefaultMaxAge; NoCache bypasses the cache.
type CachedSource struct {
	inner PackageSource

	finds    *cache.MemoryCache[*PackageIdentity]
	versions *cache.MemoryCache[[]*version.SemanticVersion]
	deps     *cache.MemoryCache[[]PackageDependency]
	group    singleflight.Group
}

// NewCachedSource wraps inner with caches of at most maxEntries entries each.
func NewCachedSource(inner PackageSource, maxEntries int) *CachedSource {
	return &CachedSource{
		inner:    inner,
		finds:    cache.NewMemoryCache[*PackageIdentity](maxEntries),
		versions: cache.NewMemoryCache[[]*version.SemanticVersion](maxEntries),
		deps:     cache.NewMemoryCache[[]PackageDependency](maxEntries),
	}
}

// Name implements PackageSource.
func (c *CachedSource) Name() string {
	return c.inner.Name()
}

// FindPackage implements PackageSource.
func (c *CachedSource) FindPackage(ctx context.Context, id string, spec *version.VersionSpec) (*PackageIdentity, error) {
	return cached(ctx, c, c.finds, "find_package", IDKey(id)+"|"+spec.String(), func() (*PackageIdentity, error) {
		return c.inner.FindPackage(ctx, id, spec)
	})
}

// GetDependencies implements PackageSource.
func (c *CachedSource) GetDependencies(ctx context.Context, identity PackageIdentity, targetFramework *frameworks.NuGetFramework) ([]PackageDependency, error) {
	key := identity.Key() + "|" + targetFramework.String()
	return cached(ctx, c, c.deps, "get_dependencies", key, func() ([]PackageDependency, error) {
		return c.inner.GetDependencies(ctx, identity, targetFramework)
	})
}

// GetAvailableVersions implements PackageSource.
func (c *CachedSource) GetAvailableVersions(ctx context.Context, id string) ([]*version.SemanticVersion, error) {
	return cached(ctx, c, c.versions, "get_versions", IDKey(id), func() ([]*version.SemanticVersion, error) {
		return c.inner.GetAvailableVersions(ctx, id)
	})
}

// GetContent passes through; package content is not cached.
func (c *CachedSource) GetContent(ctx context.Context, identity PackageIdentity) (*PackageContent, error) {
	cs, ok := c.inner.(ContentSource)
	if !ok {
		return nil, ErrPackageNotFound
	}
	return cs.GetContent(ctx, identity)
}

// Stats sums the statistics of the metadata caches.
func (c *CachedSource) Stats() cache.Stats {
	var total cache.Stats
	for _, s := range []cache.Stats{c.finds.Stats(), c.versions.Stats(), c.deps.Stats()} {
		total.Entries += s.Entries
		total.Hits += s.Hits
		total.Misses += s.Misses
	}
	return total
}

func cached[V any](ctx context.Context, c *CachedSource, mc *cache.MemoryCache[V], op, key string, load func() (V, error)) (V, error) {
	ttl := cache.DefaultMaxAge
	if cacheCtx := cache.FromContext(ctx); cacheCtx != nil {
		if cacheCtx.NoCache {
			return load()
		}
		ttl = cacheCtx.MaxAge
	}

	if v, ok := mc.Get(key); ok {
		observability.CacheHitsTotal.WithLabelValues(op).Inc()
		observability.RecordCacheHit(ctx, true)
		return v, nil
	}
	observability.CacheMissesTotal.WithLabelValues(op).Inc()
	observability.RecordCacheHit(ctx, false)

	res, err, _ := c.group.Do(op+"|"+key, func() (any, error) {
		v, err := load()
		if err != nil {
			return v, err
		}
		mc.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

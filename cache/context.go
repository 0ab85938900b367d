package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const cacheContextKey contextKey = "nugetplan.cache.context"

// DefaultMaxAge is how long source metadata stays cached by default.
const DefaultMaxAge = 30 * time.Minute

// SourceCacheContext controls how cached package sources use their cache for
// one resolve-then-execute session.
type SourceCacheContext struct {
	// MaxAge is the TTL applied to entries written during the session.
	MaxAge time.Duration

	// NoCache bypasses cached entries and always calls the underlying source.
	NoCache bool

	// SessionID identifies the session in logs and traces.
	SessionID string
}

// NewSourceCacheContext creates a cache context with defaults and a fresh session id.
func NewSourceCacheContext() *SourceCacheContext {
	return &SourceCacheContext{
		MaxAge:    DefaultMaxAge,
		SessionID: uuid.New().String(),
	}
}

// WithCacheContext attaches cacheCtx to ctx.
func WithCacheContext(ctx context.Context, cacheCtx *SourceCacheContext) context.Context {
	if cacheCtx == nil {
		return ctx
	}
	return context.WithValue(ctx, cacheContextKey, cacheCtx)
}

// FromContext returns the cache context attached to ctx, or nil.
func FromContext(ctx context.Context) *SourceCacheContext {
	if ctx == nil {
		return nil
	}
	cacheCtx, _ := ctx.Value(cacheContextKey).(*SourceCacheContext)
	return cacheCtx
}

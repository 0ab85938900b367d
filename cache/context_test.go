package cache

import (
	"context"
	"testing"
)

func TestSourceCacheContext_RoundTrip(t *testing.T) {
	cacheCtx := NewSourceCacheContext()
	if cacheCtx.MaxAge != DefaultMaxAge {
		t.Errorf("MaxAge = %v, want %v", cacheCtx.MaxAge, DefaultMaxAge)
	}
	if cacheCtx.SessionID == "" {
		t.Error("SessionID should be set")
	}

	ctx := WithCacheContext(context.Background(), cacheCtx)
	if got := FromContext(ctx); got != cacheCtx {
		t.Errorf("FromContext() = %v, want %v", got, cacheCtx)
	}

	if FromContext(context.Background()) != nil {
		t.Error("FromContext() without a cache context should be nil")
	}
	if WithCacheContext(ctx, nil) != ctx {
		t.Error("WithCacheContext(nil) should return ctx unchanged")
	}
}

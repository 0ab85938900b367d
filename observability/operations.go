package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name for nugetplan operations
const TracerName = "github.com/willibrandon/nugetplan"

// Common attribute keys
const (
	AttrPackageID      = attribute.Key("nuget.package.id")
	AttrPackageVersion = attribute.Key("nuget.package.version")
	AttrActionType     = attribute.Key("nuget.action.type")
	AttrTarget         = attribute.Key("nuget.target")
	AttrSource         = attribute.Key("nuget.source")
	AttrOperation      = attribute.Key("nuget.operation")
	AttrCacheHit       = attribute.Key("nuget.cache.hit")
	AttrFailureKind    = attribute.Key("nuget.resolve.failure")
)

// StartResolveSpan starts the span wrapping one ResolveActions call.
func StartResolveSpan(ctx context.Context, operationCount int) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "actions.resolve",
		trace.WithAttributes(
			attribute.Int("resolver.operations", operationCount),
			AttrOperation.String("resolve"),
		),
	)
}

// StartExecuteSpan starts the span wrapping one Execute batch.
func StartExecuteSpan(ctx context.Context, batchID string, actionCount int) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "actions.execute",
		trace.WithAttributes(
			attribute.String("executor.batch_id", batchID),
			attribute.Int("executor.actions", actionCount),
			AttrOperation.String("execute"),
		),
	)
}

// StartActionSpan starts a span for applying a single action.
func StartActionSpan(ctx context.Context, actionType, packageID, version, target string) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "action.apply",
		trace.WithAttributes(
			AttrActionType.String(actionType),
			AttrPackageID.String(packageID),
			AttrPackageVersion.String(version),
			AttrTarget.String(target),
		),
	)
}

// StartSourceLookupSpan starts a span for a package source call.
func StartSourceLookupSpan(ctx context.Context, source, operation, packageID string) (context.Context, trace.Span) {
	return StartSpan(ctx, TracerName, "source.lookup",
		trace.WithAttributes(
			AttrSource.String(source),
			AttrOperation.String(operation),
			AttrPackageID.String(packageID),
		),
	)
}

// RecordCacheHit records cache hit/miss on the current span
func RecordCacheHit(ctx context.Context, hit bool) {
	SetAttributes(ctx, AttrCacheHit.Bool(hit))
}

// EndSpanWithError ends a span with an error status
func EndSpanWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestSetupTracing_Exporters(t *testing.T) {
	tests := []struct {
		name     string
		exporter string
		wantErr  bool
	}{
		{"stdout", "stdout", false},
		{"none", "none", false},
		{"empty means none", "", false},
		{"unknown", "zipkin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			config := DefaultTracerConfig()
			config.ExporterType = tt.exporter

			tp, err := SetupTracing(ctx, config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetupTracing() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer func() {
				if err := ShutdownTracing(ctx, tp); err != nil {
					t.Errorf("ShutdownTracing() failed: %v", err)
				}
			}()

			_, span := StartSpan(ctx, TracerName, "test-span")
			span.SetAttributes(attribute.String("test.key", "test.value"))
			if !span.SpanContext().IsValid() {
				t.Error("Span context should be valid")
			}
			span.End()
		})
	}
}

func TestSetupTracing_StdoutWriter(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	config := DefaultTracerConfig()
	config.ExporterType = "stdout"
	config.Writer = &buf

	tp, err := SetupTracing(ctx, config)
	if err != nil {
		t.Fatalf("SetupTracing() error = %v", err)
	}
	_, span := StartResolveSpan(ctx, 2)
	span.End()
	if err := ShutdownTracing(ctx, tp); err != nil {
		t.Fatalf("ShutdownTracing() error = %v", err)
	}

	if !strings.Contains(buf.String(), "actions.resolve") {
		t.Errorf("exported spans missing actions.resolve:\n%s", buf.String())
	}
}

func TestDefaultTracerConfig(t *testing.T) {
	config := DefaultTracerConfig()
	if config.ServiceName != "nugetplan" {
		t.Errorf("ServiceName = %q, want nugetplan", config.ServiceName)
	}
	if config.ExporterType != "none" {
		t.Errorf("ExporterType = %q, want none", config.ExporterType)
	}
	if config.SamplingRate != 1.0 {
		t.Errorf("SamplingRate = %v, want 1.0", config.SamplingRate)
	}
}

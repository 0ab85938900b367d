package observability

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

var (
	// ResolveDuration tracks ResolveActions wall time by outcome
	ResolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nugetplan_resolve_duration_seconds",
			Help:    "Action resolution duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to 4s
		},
		[]string{"result"}, // success, failure
	)

	// ActionsPlannedTotal counts actions emitted by the resolver
	ActionsPlannedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nugetplan_actions_planned_total",
			Help: "Total number of package actions planned by type",
		},
		[]string{"type"}, // install, uninstall, update
	)

	// ResolverFailuresTotal counts resolution failures by error kind
	ResolverFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nugetplan_resolver_failures_total",
			Help: "Total number of resolution failures by kind",
		},
		[]string{"kind"}, // version_conflict, dependents, not_found, not_installed, cycle
	)

	// ActionsAppliedTotal counts executor outcomes
	ActionsAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nugetplan_actions_applied_total",
			Help: "Total number of package actions applied by type and status",
		},
		[]string{"type", "status"}, // status: success, failure
	)

	// SourceLookupsTotal counts package source calls
	SourceLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nugetplan_source_lookups_total",
			Help: "Total number of package source lookups by operation and status",
		},
		[]string{"source", "operation", "status"},
	)

	// CacheHitsTotal counts metadata cache hits
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nugetplan_cache_hits_total",
			Help: "Total number of source metadata cache hits",
		},
		[]string{"operation"},
	)

	// CacheMissesTotal counts metadata cache misses
	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nugetplan_cache_misses_total",
			Help: "Total number of source metadata cache misses",
		},
		[]string{"operation"},
	)

	// CircuitBreakerState tracks circuit breaker state by source
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nugetplan_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"source"},
	)

	// CircuitBreakerFailures counts failures recorded by circuit breakers
	CircuitBreakerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nugetplan_circuit_breaker_failures_total",
			Help: "Total number of circuit breaker failures",
		},
		[]string{"source"},
	)

	// BindingRedirectsTotal counts computed binding redirects
	BindingRedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nugetplan_binding_redirects_total",
			Help: "Total number of assembly binding redirects computed",
		},
		[]string{"culture"},
	)
)

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// WriteMetrics dumps every registered nugetplan metric family in text exposition format.
func WriteMetrics(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "nugetplan_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// GetCounterValue retrieves the current value of a counter metric with the given labels.
// Used by tests.
func GetCounterValue(counter *prometheus.CounterVec, labels ...string) (float64, error) {
	metric, err := counter.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0, err
	}

	var pb dto.Metric
	if err := metric.Write(&pb); err != nil {
		return 0, err
	}

	if pb.Counter != nil {
		return pb.Counter.GetValue(), nil
	}

	return 0, nil
}

// GetGaugeValue is the gauge counterpart of GetCounterValue.
func GetGaugeValue(gauge *prometheus.GaugeVec, labels ...string) (float64, error) {
	metric, err := gauge.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0, err
	}

	var pb dto.Metric
	if err := metric.Write(&pb); err != nil {
		return 0, err
	}

	if pb.Gauge != nil {
		return pb.Gauge.GetValue(), nil
	}

	return 0, nil
}

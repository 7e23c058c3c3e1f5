// Package metrics exposes Prometheus instrumentation for analysis runs and
// the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis kinds used as the "kind" label
const (
	KindCorrelation     = "correlation"
	KindCorrelationScan = "correlation_scan"
	KindSimilarDays     = "similar_days"
	KindSummary         = "summary"
	KindDashboard       = "dashboard"
	KindReflection      = "reflection"
)

// Collector holds the application's metrics on a private registry
type Collector struct {
	registry *prometheus.Registry

	analysisRuns        *prometheus.CounterVec
	analysisDuration    *prometheus.HistogramVec
	ruleFaults          *prometheus.CounterVec
	droppedObservations *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a Collector with Go runtime and process collectors registered
func New() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Collector{
		registry: registry,

		analysisRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daylog_analysis_runs_total",
				Help: "Total number of analysis runs",
			},
			[]string{"kind", "status"},
		),

		analysisDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "daylog_analysis_duration_seconds",
				Help:    "Analysis run duration in seconds, including storage reads",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		ruleFaults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daylog_reflection_rule_faults_total",
				Help: "Reflection rule conditions that panicked and were treated as not detected",
			},
			[]string{"rule_set", "rule"},
		),

		droppedObservations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daylog_reflection_observations_dropped_total",
				Help: "Reflection observations rejected by the language policy",
			},
			[]string{"rule_set"},
		),

		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "daylog_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),

		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "daylog_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
}

// ObserveAnalysis records one analysis run that started at start
func (c *Collector) ObserveAnalysis(kind string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.analysisRuns.WithLabelValues(kind, status).Inc()
	c.analysisDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// ObserveRequest records one served HTTP request
func (c *Collector) ObserveRequest(route, method string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RuleFault implements reflection.Observer
func (c *Collector) RuleFault(ruleSetID, ruleID string) {
	c.ruleFaults.WithLabelValues(ruleSetID, ruleID).Inc()
}

// ObservationDropped implements reflection.Observer. The phrase is not used
// as a label to keep cardinality bounded.
func (c *Collector) ObservationDropped(ruleSetID, phrase string) {
	c.droppedObservations.WithLabelValues(ruleSetID).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

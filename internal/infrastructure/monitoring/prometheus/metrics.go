package prometheus

import (
	"strconv"
	"time"
)

// FoldMetrics holds every metric family exported by foldcore.
type FoldMetrics struct {
	// Folding
	FoldsTotal        CounterVec
	FoldDuration      HistogramVec
	LibraryStructures GaugeVec
	LibraryBuild      HistogramVec
	DesignAttempts    HistogramVec

	// Cache
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// Transport
	HTTPRequestsTotal      CounterVec
	HTTPRequestDuration    HistogramVec
	GRPCRequestsTotal      CounterVec
	MessagesProcessedTotal CounterVec

	// Health
	ErrorsTotal CounterVec
}

var (
	DefaultFoldDurationBuckets  = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1}
	DefaultBuildDurationBuckets = []float64{.01, .1, 1, 5, 10, 30, 60, 120, 300}
	DefaultHTTPDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultAttemptBuckets       = []float64{1, 10, 100, 1000, 10000, 100000}
)

// Fold outcomes.
const (
	OutcomeFolded   = "folded"
	OutcomeUnfolded = "unfolded"
	OutcomeError    = "error"
)

// NewFoldMetrics registers all metric families on collector.
func NewFoldMetrics(collector MetricsCollector) *FoldMetrics {
	m := &FoldMetrics{}

	m.FoldsTotal = collector.RegisterCounter("folds_total", "Sequences folded", "library", "outcome")
	m.FoldDuration = collector.RegisterHistogram("fold_duration_seconds", "Time to fold one sequence", DefaultFoldDurationBuckets, "library")
	m.LibraryStructures = collector.RegisterGauge("library_structures", "Structures in the loaded conformation library", "library")
	m.LibraryBuild = collector.RegisterHistogram("library_build_seconds", "Time to build the conformation library", DefaultBuildDurationBuckets, "library")
	m.DesignAttempts = collector.RegisterHistogram("design_attempts", "Mutations tried per sequence design", DefaultAttemptBuckets, "result")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Fold cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Fold cache misses", "cache")

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.GRPCRequestsTotal = collector.RegisterCounter("grpc_requests_total", "Total gRPC requests", "service", "method", "code")
	m.MessagesProcessedTotal = collector.RegisterCounter("messages_processed_total", "Queue messages processed", "topic", "status")

	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "code")

	return m
}

// Helpers. All of them accept a nil *FoldMetrics.

func RecordFold(m *FoldMetrics, library string, folded bool, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeUnfolded
	switch {
	case err != nil:
		outcome = OutcomeError
	case folded:
		outcome = OutcomeFolded
	}
	m.FoldsTotal.WithLabelValues(library, outcome).Inc()
	m.FoldDuration.WithLabelValues(library).Observe(d.Seconds())
}

func RecordLibrary(m *FoldMetrics, library string, size int, buildTime time.Duration) {
	if m == nil {
		return
	}
	m.LibraryStructures.WithLabelValues(library).Set(float64(size))
	m.LibraryBuild.WithLabelValues(library).Observe(buildTime.Seconds())
}

func RecordDesign(m *FoldMetrics, found bool, attempts int) {
	if m == nil {
		return
	}
	result := "found"
	if !found {
		result = "exhausted"
	}
	m.DesignAttempts.WithLabelValues(result).Observe(float64(attempts))
}

func RecordCacheAccess(m *FoldMetrics, cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordHTTPRequest(m *FoldMetrics, method, path string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func RecordGRPCRequest(m *FoldMetrics, service, method, code string) {
	if m == nil {
		return
	}
	m.GRPCRequestsTotal.WithLabelValues(service, method, code).Inc()
}

func RecordMessage(m *FoldMetrics, topic string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.MessagesProcessedTotal.WithLabelValues(topic, status).Inc()
}

func RecordError(m *FoldMetrics, component, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}

//Personal.AI order the ending

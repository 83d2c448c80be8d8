package service

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/admitcard-query/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the query client
// and provides lightweight snapshots for the end-of-session summary.
type MetricsService struct {
	registry      *prometheus.Registry
	submissions   prometheus.Counter
	reenables     prometheus.Counter
	outcomes      *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	downloads     *prometheus.CounterVec

	submissionCount     uint64
	successCount        uint64
	failureCount        uint64
	queryDurationTotal  uint64
	downloadCount       uint64
	downloadFailedCount uint64
}

// NewMetricsService registers the client collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	submissions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "admitcard_form_submissions_total",
		Help: "Total number of query form submissions",
	})

	reenables := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "admitcard_button_reenables_total",
		Help: "Total number of times the query button was re-enabled",
	})

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admitcard_query_outcomes_total",
		Help: "Query results by outcome and error code",
	}, []string{"outcome", "code"})

	queryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admitcard_query_duration_seconds",
		Help:    "Duration of query round trips in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	downloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admitcard_downloads_total",
		Help: "File downloads triggered by navigation",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(submissions, reenables, outcomes, queryDuration, downloads, goroutines)

	return &MetricsService{
		registry:      registry,
		submissions:   submissions,
		reenables:     reenables,
		outcomes:      outcomes,
		queryDuration: queryDuration,
		downloads:     downloads,
	}
}

// Gatherer exposes the registry for textfile export or tests.
func (m *MetricsService) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// WriteTextfile writes the current metrics in the node_exporter textfile
// format. An empty path is a no-op.
func (m *MetricsService) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// RecordSubmission counts one accepted form submission.
func (m *MetricsService) RecordSubmission() {
	if m == nil {
		return
	}
	m.submissions.Inc()
	atomic.AddUint64(&m.submissionCount, 1)
}

// RecordReenable counts one button re-enable.
func (m *MetricsService) RecordReenable() {
	if m == nil {
		return
	}
	m.reenables.Inc()
}

// ObserveQuery records the outcome and latency of one query.
func (m *MetricsService) ObserveQuery(outcome models.Outcome, duration time.Duration) {
	if m == nil {
		return
	}
	code := ""
	if outcome.Err != nil {
		code = outcome.Err.Code
	}
	kind := string(outcome.Kind)
	m.outcomes.WithLabelValues(kind, code).Inc()
	m.queryDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if outcome.Succeeded() {
		atomic.AddUint64(&m.successCount, 1)
	} else {
		atomic.AddUint64(&m.failureCount, 1)
	}
	atomic.AddUint64(&m.queryDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordDownload counts a finished download attempt.
func (m *MetricsService) RecordDownload(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.downloads.WithLabelValues("failed").Inc()
		atomic.AddUint64(&m.downloadFailedCount, 1)
		return
	}
	m.downloads.WithLabelValues("saved").Inc()
	atomic.AddUint64(&m.downloadCount, 1)
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() models.QueryMetrics {
	if m == nil {
		return models.QueryMetrics{}
	}
	successes := atomic.LoadUint64(&m.successCount)
	failures := atomic.LoadUint64(&m.failureCount)
	durationTotal := atomic.LoadUint64(&m.queryDurationTotal)

	var avgQueryMs float64
	if total := successes + failures; total > 0 {
		avgQueryMs = float64(durationTotal) / float64(total) / float64(time.Millisecond)
	}

	return models.QueryMetrics{
		Submissions:            atomic.LoadUint64(&m.submissionCount),
		Successes:              successes,
		Failures:               failures,
		AverageQueryDurationMs: avgQueryMs,
		Downloads:              atomic.LoadUint64(&m.downloadCount),
		DownloadFailures:       atomic.LoadUint64(&m.downloadFailedCount),
		GeneratedAt:            time.Now().UTC(),
	}
}

// Package metrics exposes Prometheus collectors for the ingestion pipeline.
package metrics

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	crawlPagesTotal       *prometheus.CounterVec
	crawlBytesTotal       *prometheus.CounterVec
	crawlActiveWorkers    prometheus.Gauge
	rateLimitDelaySeconds *prometheus.HistogramVec
	fetchRetriesTotal     prometheus.Counter
	robotsDeniedTotal     *prometheus.CounterVec
	feedRecordsTotal      *prometheus.CounterVec
	snapshotVersionGauge  prometheus.Gauge
	changesDetectedTotal  *prometheus.CounterVec
	droppedLinksTotal     *prometheus.CounterVec
	runDurationSeconds    *prometheus.HistogramVec

	once sync.Once
)

// Init registers the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		crawlPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardsync_crawl_pages_total",
				Help: "Pages processed by the crawl pipeline, labeled by stage and outcome.",
			},
			[]string{"stage", "outcome"},
		)

		crawlBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardsync_crawl_bytes_total",
				Help: "Bytes fetched, labeled by host.",
			},
			[]string{"host"},
		)

		crawlActiveWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "wardsync_crawl_active_workers",
				Help: "Workers currently executing a crawl task.",
			},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wardsync_rate_limit_delay_seconds",
				Help:    "Politeness gate wait durations, labeled by host.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"host"},
		)

		fetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "wardsync_fetch_retries_total",
				Help: "Fetch attempts beyond the first, across all hosts.",
			},
		)

		robotsDeniedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardsync_robots_denied_total",
				Help: "Fetches denied by robots directives, labeled by host.",
			},
			[]string{"host"},
		)

		feedRecordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardsync_feed_records_total",
				Help: "Authoritative feed records processed, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		snapshotVersionGauge = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "wardsync_snapshot_version",
				Help: "Version number of the most recently published dataset.",
			},
		)

		changesDetectedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardsync_changes_detected_total",
				Help: "Field-level changes detected, labeled by kind.",
			},
			[]string{"kind"},
		)

		droppedLinksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wardsync_dropped_links_total",
				Help: "Malformed discovered links dropped during extraction, labeled by stage.",
			},
			[]string{"stage"},
		)

		runDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wardsync_run_duration_seconds",
				Help:    "Wall-clock duration of pipeline runs, labeled by pipeline.",
				Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
			},
			[]string{"pipeline"},
		)
	})
}

// SanitizeHost extracts a lowercase hostname, or "unknown" for invalid URLs.
func SanitizeHost(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCrawlPage records one completed crawl task.
func ObserveCrawlPage(stage, outcome string, bytesFetched int, host string) {
	crawlPagesTotal.WithLabelValues(stage, outcome).Inc()
	if bytesFetched > 0 {
		crawlBytesTotal.WithLabelValues(SanitizeHost(host)).Add(float64(bytesFetched))
	}
}

// ObserveRateLimitDelay records a politeness gate wait.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	rateLimitDelaySeconds.WithLabelValues(SanitizeHost(host)).Observe(duration.Seconds())
}

// ObserveFetchRetry counts one retried fetch attempt.
func ObserveFetchRetry() {
	fetchRetriesTotal.Inc()
}

// ObserveRobotsDenied counts a robots-denied fetch.
func ObserveRobotsDenied(host string) {
	robotsDeniedTotal.WithLabelValues(SanitizeHost(host)).Inc()
}

// ObserveFeedRecord counts one feed record by outcome ("normalized" or "skipped").
func ObserveFeedRecord(outcome string) {
	feedRecordsTotal.WithLabelValues(outcome).Inc()
}

// SetSnapshotVersion publishes the current dataset version.
func SetSnapshotVersion(version int64) {
	snapshotVersionGauge.Set(float64(version))
}

// ObserveChanges adds detected change counts by kind.
func ObserveChanges(kind string, n int) {
	if n > 0 {
		changesDetectedTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// ObserveDroppedLinks counts malformed links dropped by an extraction rule.
func ObserveDroppedLinks(stage string, n int) {
	if n > 0 {
		droppedLinksTotal.WithLabelValues(stage).Add(float64(n))
	}
}

// IncActiveWorkers increments the active worker gauge.
func IncActiveWorkers() { crawlActiveWorkers.Inc() }

// DecActiveWorkers decrements the active worker gauge.
func DecActiveWorkers() { crawlActiveWorkers.Dec() }

// ObserveRunDuration records the duration of one pipeline run.
func ObserveRunDuration(pipeline string, d time.Duration) {
	runDurationSeconds.WithLabelValues(pipeline).Observe(d.Seconds())
}

// Package metrics provides counters, Prometheus collectors, and HTTP
// handlers for exporting zonewatch runtime metrics.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Internal state (source of truth for the JSON snapshot)
var (
	discoveryRuns     int64
	discoveryFailures int64
	zonesDiscovered   int64
	zonesAdded        int64
	zonesRemoved      int64
	notificationsSent int64
	notificationsFail int64
	lastRun           int64
)

// Prometheus collectors
var (
	promDiscoveryRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zonewatch_discovery_runs_total",
			Help: "Total discovery passes executed",
		},
	)
	promDiscoveryFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zonewatch_discovery_failures_total",
			Help: "Total discovery passes that failed entirely",
		},
	)
	promZones = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zonewatch_zones_discovered",
			Help: "Zones found in the most recent discovery pass",
		},
	)
	promZonesAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zonewatch_zones_added_total",
			Help: "Total zones that appeared across all passes",
		},
	)
	promZonesRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "zonewatch_zones_removed_total",
			Help: "Total zones that disappeared across all passes",
		},
	)
	promNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zonewatch_notifications_total",
			Help: "Total notification deliveries by channel and status",
		},
		[]string{"channel", "status"},
	)
	promDiscoveryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "zonewatch_discovery_duration_seconds",
			Help: "Duration of discovery passes",
			Buckets: []float64{
				0.25,
				0.5,
				1,
				2,
				5,
				10,
				30,
				60,
				120,
			},
		},
	)
	promLastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "zonewatch_last_run_timestamp_seconds",
			Help: "Unix timestamp of last discovery pass",
		},
	)
)

func init() {
	prometheus.MustRegister(
		promDiscoveryRuns,
		promDiscoveryFailures,
		promZones,
		promZonesAdded,
		promZonesRemoved,
		promNotifications,
		promDiscoveryDuration,
		promLastRun,
	)
}

// IncDiscoveryRun increments the discovery pass counter.
func IncDiscoveryRun() {
	atomic.AddInt64(&discoveryRuns, 1)
	promDiscoveryRuns.Inc()
}

// IncDiscoveryFailure increments the counter for total discovery failures.
func IncDiscoveryFailure() {
	atomic.AddInt64(&discoveryFailures, 1)
	promDiscoveryFailures.Inc()
}

// SetZonesDiscovered records the zone count of the most recent pass.
func SetZonesDiscovered(n int) {
	atomic.StoreInt64(&zonesDiscovered, int64(n))
	promZones.Set(float64(n))
}

// AddZonesAdded adds to the appeared-zones counter.
func AddZonesAdded(n int) {
	atomic.AddInt64(&zonesAdded, int64(n))
	promZonesAdded.Add(float64(n))
}

// AddZonesRemoved adds to the disappeared-zones counter.
func AddZonesRemoved(n int) {
	atomic.AddInt64(&zonesRemoved, int64(n))
	promZonesRemoved.Add(float64(n))
}

// IncNotification records one delivery outcome for a channel.
func IncNotification(channel string, ok bool) {
	status := "success"
	if ok {
		atomic.AddInt64(&notificationsSent, 1)
	} else {
		atomic.AddInt64(&notificationsFail, 1)
		status = "failure"
	}
	promNotifications.WithLabelValues(channel, status).Inc()
}

// ObserveDiscoveryDuration records the duration (in seconds) of a discovery
// pass in the Prometheus histogram.
func ObserveDiscoveryDuration(seconds float64) {
	promDiscoveryDuration.Observe(seconds)
}

// SetLastRun stores the provided time as the last run timestamp and updates
// the corresponding Prometheus gauge.
func SetLastRun(t time.Time) {
	atomic.StoreInt64(&lastRun, t.Unix())
	promLastRun.Set(float64(t.Unix()))
}

// StatsSnapshot is a snapshot of metrics for JSON encoding.
type StatsSnapshot struct {
	DiscoveryRuns       int64  `json:"discovery_runs"`
	DiscoveryFailures   int64  `json:"discovery_failures"`
	ZonesDiscovered     int64  `json:"zones_discovered"`
	ZonesAdded          int64  `json:"zones_added"`
	ZonesRemoved        int64  `json:"zones_removed"`
	NotificationsSent   int64  `json:"notifications_sent"`
	NotificationsFailed int64  `json:"notifications_failed"`
	LastRun             int64  `json:"last_run_timestamp"`
	LastRunHuman        string `json:"last_run_human"`
}

// GetSnapshot returns a StatsSnapshot with the current values of all
// internal counters and timestamps.
func GetSnapshot() StatsSnapshot {
	ts := atomic.LoadInt64(&lastRun)
	return StatsSnapshot{
		DiscoveryRuns:       atomic.LoadInt64(&discoveryRuns),
		DiscoveryFailures:   atomic.LoadInt64(&discoveryFailures),
		ZonesDiscovered:     atomic.LoadInt64(&zonesDiscovered),
		ZonesAdded:          atomic.LoadInt64(&zonesAdded),
		ZonesRemoved:        atomic.LoadInt64(&zonesRemoved),
		NotificationsSent:   atomic.LoadInt64(&notificationsSent),
		NotificationsFailed: atomic.LoadInt64(&notificationsFail),
		LastRun:             ts,
		LastRunHuman:        time.Unix(ts, 0).Format(time.RFC3339),
	}
}

// PromHandler returns an HTTP handler that exposes Prometheus metrics.
func PromHandler() http.Handler { return promhttp.Handler() }

// JSONHandler returns an HTTP handler that serves the current metrics as a
// JSON-encoded StatsSnapshot.
func JSONHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(GetSnapshot())
	})
}

// Package metrics holds the Prometheus collectors of familysync.
// Collectors register with the default registry once, at package init.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "familysync_operations_total",
		Help: "Family and item operations by name and result",
	}, []string{"operation", "result"})

	storeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "familysync_store_operation_duration_seconds",
		Help:    "Latency of store calls including retries",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
	}, []string{"operation", "result"})

	storeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "familysync_store_retries_total",
		Help: "Store calls retried after a transient failure",
	}, []string{"operation"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "familysync_notifications_total",
		Help: "Change notifications published by result",
	}, []string{"result"})

	syncSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "familysync_sync_sessions_active",
		Help: "Sync sessions currently holding live subscriptions",
	})

	snapshotsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "familysync_snapshots_published_total",
		Help: "Snapshots published to watchers by sync status",
	}, []string{"status"})
)

// Result labels err as "ok" or "error"; classes lets callers name expected
// error kinds (e.g. "not_found") instead.
func Result(err error, classes map[error]string) string {
	if err == nil {
		return "ok"
	}
	for target, label := range classes {
		if errors.Is(err, target) {
			return label
		}
	}
	return "error"
}

// ObserveOperation counts a completed service operation.
func ObserveOperation(operation, result string) {
	operationsTotal.WithLabelValues(operation, result).Inc()
}

// ObserveStore records the latency of a store call started at start.
func ObserveStore(operation string, start time.Time, err error) {
	storeDuration.WithLabelValues(operation, Result(err, nil)).Observe(time.Since(start).Seconds())
}

// IncStoreRetry counts one retry of a store call.
func IncStoreRetry(operation string) {
	storeRetries.WithLabelValues(operation).Inc()
}

// ObserveNotification counts a published change notification.
func ObserveNotification(err error) {
	notificationsTotal.WithLabelValues(Result(err, nil)).Inc()
}

// SyncSessionStarted and SyncSessionEnded track live sync sessions.
func SyncSessionStarted() { syncSessions.Inc() }

func SyncSessionEnded() { syncSessions.Dec() }

// ObserveSnapshot counts a snapshot handed to a watcher.
func ObserveSnapshot(status string) {
	snapshotsPublished.WithLabelValues(status).Inc()
}

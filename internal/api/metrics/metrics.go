// Package metrics defines and registers all custom Prometheus metrics for the
// loan portal session client. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Session metrics ───────────────────────────────────────────────────────────

// AuthActionsTotal counts session lifecycle actions.
// Labels:
//   - action: login, logout, register, update_profile, change_password, forgot_password, reset_password, restore
//   - result: "success" or "failure"
var AuthActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_actions_total",
		Help:      "Total number of session lifecycle actions, by action and result.",
	},
	[]string{"action", "result"},
)

// ── Remote backend metrics ────────────────────────────────────────────────────

// RemoteRequestDuration measures round trips to the portal backend.
// Labels:
//   - op: remote operation name (e.g. "me", "register", "list_applications")
//   - code: HTTP status code, or "error" when no response was received
var RemoteRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "remote_request_duration_seconds",
		Help:      "Duration of calls to the portal backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op", "code"},
)

// ── Status sync metrics ───────────────────────────────────────────────────────

// SyncRunsTotal counts status synchronization runs.
// Label:
//   - result: "success", "failure", "skipped" (no stored credentials) or
//     "discarded" (session reset while the run was in flight)
var SyncRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_runs_total",
		Help:      "Total number of loan status synchronization runs, by result.",
	},
	[]string{"result"},
)

// StatusChangesTotal counts application status changes observed by polling.
// Label:
//   - status: the new application status
var StatusChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_changes_total",
		Help:      "Total number of loan application status changes detected.",
	},
	[]string{"status"},
)

// UnreadNotifications tracks unread notifications seen by the last sync.
var UnreadNotifications = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "unread_notifications",
		Help:      "Unread notifications reported by the last successful sync.",
	},
)

// Result maps an error to the "success"/"failure" label value.
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

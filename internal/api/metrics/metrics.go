// Package metrics defines and registers the custom Prometheus metrics of the
// operator console. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "console"

// ── Delivery metrics ──────────────────────────────────────────────────────────

// DeliveryTogglesTotal counts toggle outcomes.
// Labels:
//   - state: "confirmed", "rolled_back" or "rejected"
//   - condition: the failure condition, or "none" when confirmed
var DeliveryTogglesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivery_toggles_total",
		Help:      "Total number of delivery toggles, by terminal state and condition.",
	},
	[]string{"state", "condition"},
)

// DeliveryToggleDuration measures a toggle from request to terminal outcome.
var DeliveryToggleDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "delivery_toggle_duration_seconds",
		Help:      "Duration of a delivery toggle including the backend round trip.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"state"},
)

// OrdersCompletedTotal counts orders the backend reported as completed.
var OrdersCompletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_completed_total",
		Help:      "Total number of orders completed by a delivery toggle.",
	},
)

// OrderRefreshErrorsTotal counts failed order list refreshes.
var OrderRefreshErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_refresh_errors_total",
		Help:      "Total number of failed order list refreshes.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "rejected" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ForcedLogoutsTotal counts sessions ended by a backend 401.
var ForcedLogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forced_logouts_total",
		Help:      "Total number of sessions cleared after the backend rejected the credential.",
	},
)

// ConditionLabel maps an empty condition to "none".
func ConditionLabel(c string) string {
	if c == "" {
		return "none"
	}
	return c
}

// Package metrics defines and registers all custom Prometheus metrics for the
// netbar billing API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry on package init via
// promauto; HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "netbar"

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersCreatedTotal counts orders accepted from seated users.
var OrdersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of commodity orders created.",
	},
)

// OrdersHandledTotal counts orders leaving the Pending state.
// Label:
//   - status: "Completed" or "Cancelled"
var OrdersHandledTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_handled_total",
		Help:      "Total number of orders completed or cancelled by staff.",
	},
	[]string{"status"},
)

// OrderRevenueTotal sums the value of created orders.
var OrderRevenueTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_revenue_yuan_total",
		Help:      "Total value of created orders, in yuan.",
	},
)

// ── Balance metrics ───────────────────────────────────────────────────────────

// RechargesTotal counts successful balance top-ups.
var RechargesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recharges_total",
		Help:      "Total number of balance recharges.",
	},
)

// RechargeAmountTotal sums recharged amounts.
var RechargeAmountTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recharge_amount_yuan_total",
		Help:      "Total amount recharged, in yuan.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsStartedTotal counts seat sessions opened.
var SessionsStartedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Total number of seat sessions started.",
	},
)

// SessionsEndedTotal counts seat sessions closed.
// Label:
//   - reason: "user" (explicit stop) or "balance" (stopped by the billing sweeper)
var SessionsEndedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_ended_total",
		Help:      "Total number of seat sessions ended, by reason.",
	},
	[]string{"reason"},
)

// SessionChargeTotal sums seat time charges.
var SessionChargeTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_charge_yuan_total",
		Help:      "Total amount charged for seat time, in yuan.",
	},
)

// ActiveSessions is the number of online users seen by the last billing sweep.
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Number of users online at the last billing sweep.",
	},
)

// BillingSweepDuration measures one pass of the billing sweeper.
var BillingSweepDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "billing_sweep_duration_seconds",
		Help:      "Duration of a billing sweep over online sessions.",
		Buckets:   prometheus.DefBuckets,
	},
)

// StopQueueDepth tracks pending stop commands per dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var StopQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stop_queue_depth",
		Help:      "Current number of stop commands pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsPublishErrorsTotal counts domain events the broker rejected.
// Label:
//   - subject: the event subject (e.g. "netbar.order.created")
var EventsPublishErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_publish_errors_total",
		Help:      "Total number of domain events that failed to publish.",
	},
	[]string{"subject"},
)

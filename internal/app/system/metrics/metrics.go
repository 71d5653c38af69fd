// internal/app/system/metrics/metrics.go

// Package metrics holds the Prometheus collectors for the service. Counters
// are registered once at package init and shared by the decision flow and
// the background jobs; the /metrics endpoint is mounted in bootstrap.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ApplicationsProcessed counts resolved applications by outcome
	// (approved, rejected, withdrawn).
	ApplicationsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "volunteerhub",
		Name:      "applications_processed_total",
		Help:      "Membership applications processed, by outcome.",
	}, []string{"outcome"})

	// JobRuns counts background job executions by job name and result
	// (ok, error, canceled).
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "volunteerhub",
		Name:      "job_runs_total",
		Help:      "Background job runs, by job and result.",
	}, []string{"job", "result"})

	// StatusUpdates counts materialized status changes written by the sweep,
	// by new status.
	StatusUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "volunteerhub",
		Name:      "status_updates_total",
		Help:      "Materialized membership status updates, by new status.",
	}, []string{"status"})

	// IntentDispatches counts side-effect intent deliveries by intent type
	// and result (ok, error).
	IntentDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "volunteerhub",
		Name:      "intent_dispatches_total",
		Help:      "Side-effect intents dispatched, by type and result.",
	}, []string{"intent", "result"})
)

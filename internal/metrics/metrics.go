// Package metrics exposes the settlement engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SavingsCharges counts contribution charge attempts by gateway-reported
	// status (success, failed, ...).
	SavingsCharges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esusu_savings_charges_total",
		Help: "Contribution charge attempts by outcome.",
	}, []string{"status"})

	// DisbursementTransfers counts payout transfer attempts by outcome.
	DisbursementTransfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esusu_disbursement_transfers_total",
		Help: "Payout transfer attempts by outcome.",
	}, []string{"status"})

	// SweepSkips counts rows a sweep skipped, by sweep and reason
	// (no_card, no_bank, already_settled, gateway_failed).
	SweepSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esusu_sweep_skips_total",
		Help: "Rows skipped during settlement sweeps by reason.",
	}, []string{"sweep", "reason"})

	// SweepRuns counts sweep invocations by sweep and result.
	SweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esusu_sweep_runs_total",
		Help: "Settlement sweep invocations by result.",
	}, []string{"sweep", "result"})
)

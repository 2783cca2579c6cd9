package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Bid outcomes
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeBusy     = "busy"
	OutcomeError    = "error"
)

// Store operations that retry on a version conflict
const (
	OpBid        = "bid"
	OpEdit       = "edit"
	OpCancel     = "cancel"
	OpSweepStart = "sweep_start"
	OpSweepEnd   = "sweep_end"
)

// Sweep kinds
const (
	SweepStart = "start"
	SweepEnd   = "end"
)

var (
	BidsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_bids_total",
			Help: "Counter for bid attempts by outcome.",
		},
		[]string{"outcome"},
	)
	SaveRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_save_retries_total",
			Help: "Counter for auction saves retried after a version conflict, by operation.",
		},
		[]string{"operation"},
	)
	SweepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_sweep_transitions_total",
			Help: "Counter for status transitions applied by the sweeper.",
		},
		[]string{"sweep", "to"},
	)
	SweepFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_sweep_failures_total",
			Help: "Counter for auctions a sweep failed to process.",
		},
		[]string{"sweep"},
	)
	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auction_sweep_duration_seconds",
			Help:    "Duration of a single sweep.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sweep"},
	)
	SweepsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_sweeps_skipped_total",
			Help: "Counter for ticks skipped because a sweep was running or leased elsewhere.",
		})
	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auction_ws_clients",
			Help: "Connected websocket clients.",
		})
)

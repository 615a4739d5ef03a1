// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Vote outcome label values
const (
	OutcomeRecorded = "recorded"
	OutcomeReplaced = "replaced"
	OutcomeNoop     = "noop"
	OutcomeRejected = "rejected"
)

var (
	votesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_votes_total",
			Help: "Votes on icon answers by type and outcome.",
		},
		[]string{"type", "outcome"},
	)
	answerSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_answer_submissions_total",
			Help: "Icon answers submitted, split by whether they were auto-accepted.",
		},
		[]string{"accepted"},
	)
	acceptanceSwitches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compass_acceptance_switches_total",
			Help: "Times the accepted answer of an icon/question pair changed.",
		},
	)
	conflictRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compass_conflict_retries_total",
			Help: "Transactions retried after a storage conflict.",
		},
		[]string{"operation"},
	)
	recomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "compass_recompute_duration_seconds",
			Help:    "Time spent recomputing an icon's axis scores.",
			Buckets: prometheus.DefBuckets,
		},
	)
	recomputeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compass_recompute_failures_total",
			Help: "Icon score recomputations that failed.",
		},
	)
)

func RecordVote(voteType, outcome string) {
	votesTotal.WithLabelValues(voteType, outcome).Inc()
}

func RecordSubmission(accepted bool) {
	label := "false"
	if accepted {
		label = "true"
	}
	answerSubmissions.WithLabelValues(label).Inc()
}

func RecordAcceptanceSwitch() {
	acceptanceSwitches.Inc()
}

func RecordConflictRetry(operation string) {
	conflictRetries.WithLabelValues(operation).Inc()
}

// ObserveRecompute records one recomputation and whether it failed.
func ObserveRecompute(d time.Duration, err error) {
	recomputeDuration.Observe(d.Seconds())
	if err != nil {
		recomputeFailures.Inc()
	}
}

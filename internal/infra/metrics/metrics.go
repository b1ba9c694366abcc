package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RosterChecks counts roster evaluations by trigger.
	RosterChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clan_rank_roster_checks_total",
			Help: "Total roster evaluations by trigger.",
		},
		[]string{"trigger"},
	)
	// MembersDue is the size of the due list from the latest check.
	MembersDue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clan_rank_members_due",
			Help: "Members due for promotion at the latest check.",
		},
	)
	// RulesConfigured is the number of rules in the active snapshot.
	RulesConfigured = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clan_rank_rules_configured",
			Help: "Rules in the active settings snapshot.",
		},
	)
	// Notifications counts notification intents by outcome: sent, failed, muted.
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clan_rank_notifications_total",
			Help: "Promotion notifications by outcome.",
		},
		[]string{"outcome"},
	)
	// CheckDuration observes how long a full roster check takes.
	CheckDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clan_rank_check_duration_seconds",
			Help:    "Duration of roster checks including delivery.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
)

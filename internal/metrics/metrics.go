// Package metrics exposes Prometheus counters for the admission flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JoinTokensIssued counts minted join tokens.
	JoinTokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "journeyhub_join_tokens_issued_total",
		Help: "Number of join tokens issued.",
	})

	// Redemptions counts redemption attempts by outcome. Outcomes are the
	// domain error codes plus "admitted", "pending", and "idempotent".
	Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "journeyhub_redemptions_total",
		Help: "Number of join-token redemption attempts by outcome.",
	}, []string{"outcome"})

	// ExpiryCascades counts expiration cascades by trigger.
	ExpiryCascades = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "journeyhub_expiry_cascades_total",
		Help: "Number of expiration cascades by trigger reason.",
	}, []string{"reason"})

	// NotifyFailures counts best-effort notifications that could not be
	// delivered.
	NotifyFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "journeyhub_notify_failures_total",
		Help: "Number of journey-update notifications that failed to send.",
	})
)

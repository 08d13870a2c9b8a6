// Package metrics exposes the broker's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AuthorizerDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bff_authorizer_decisions_total",
			Help: "Authorizer decisions by effect and reason.",
		},
		[]string{"effect", "reason"},
	)
	TokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bff_token_refreshes_total", Help: "Refresh grants by result"},
		[]string{"result"},
	)
	CallbackOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bff_callback_outcomes_total", Help: "Callback requests by outcome"},
		[]string{"outcome"},
	)
	LoginsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bff_logins_started_total", Help: "Login redirects issued"},
	)
	OnboardingWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bff_onboarding_writes_total", Help: "Onboarding record writes by record kind and result"},
		[]string{"record", "result"},
	)
)

func init() {
	prometheus.MustRegister(AuthorizerDecisions, TokenRefreshes, CallbackOutcomes, LoginsStarted, OnboardingWrites)
}

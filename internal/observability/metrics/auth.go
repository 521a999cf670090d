package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AccessTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_access_tokens_issued_total",
			Help: "Total number of access tokens issued",
		},
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	SignupsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_signups_total",
			Help: "Total number of successful signups",
		},
	)
)

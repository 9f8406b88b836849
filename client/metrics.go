package client

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch attempt outcomes.
const (
	outcomeSuccess   = "success"
	outcomeTransient = "transient"
	outcomePermanent = "permanent"
)

func newAttemptsCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "client_fetch_attempts_total",
		Help: "Artifact fetch attempts by outcome.",
	}, []string{"outcome"})
	if reg == nil {
		return vec
	}
	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return vec
}

package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DecisionsTotal *prometheus.CounterVec // Решения ограничителя: admitted/rejected
	TrackedClients prometheus.Gauge       // Количество клиентов с состоянием
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DecisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audioproxy_ratelimit_decisions_total",
				Help: "Total number of rate limiter decisions",
			},
			[]string{"result"},
		),
		TrackedClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "audioproxy_ratelimit_tracked_clients",
				Help: "Number of clients with rate limiter state",
			},
		),
	}
}

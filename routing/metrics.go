package routing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ProxyOutcomesTotal *prometheus.CounterVec // Чем закончился запрос к прокси
	ValidationsTotal   prometheus.Counter     // Проверки upstream с записью в кэш
	StreamResultsTotal *prometheus.CounterVec // Результаты /api/stream
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProxyOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audioproxy_proxy_outcomes_total",
				Help: "Total number of proxy requests by terminal state",
			},
			[]string{"outcome"},
		),
		ValidationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "audioproxy_proxy_validations_total",
				Help: "Upstream fetches that were validated and recorded in the cache",
			},
		),
		StreamResultsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audioproxy_stream_results_total",
				Help: "Total number of stream resolution requests by HTTP status",
			},
			[]string{"code"},
		),
	}
}

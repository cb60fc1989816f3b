package apigw

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestsTotal  *prometheus.CounterVec   // Количество обработанных запросов
	RequestLatency *prometheus.HistogramVec // Латентность запросов (для прокси - до конца потока)
}

// NewMetrics создает метрики шлюза и регистрирует их в reg.
// reg == nil создает незарегистрированные метрики (удобно в тестах).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audioproxy_apigw_requests_total",
				Help: "Total number of processed API requests",
			},
			[]string{"operation", "code"},
		),
		RequestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "audioproxy_apigw_request_latency_seconds",
				Help:    "Latency of API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

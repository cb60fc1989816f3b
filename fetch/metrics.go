package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	UpstreamRequestsTotal *prometheus.CounterVec // Запросы к upstream по коду ответа ("error" для сетевых ошибок)
	UpstreamLatency       prometheus.Histogram   // Время до получения заголовков
	UpstreamBytesRead     prometheus.Counter     // Прочитано байт из upstream
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audioproxy_upstream_requests_total",
				Help: "Total number of requests sent to upstream origins",
			},
			[]string{"code"},
		),
		UpstreamLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "audioproxy_upstream_latency_seconds",
				Help:    "Time until upstream response headers arrive",
				Buckets: prometheus.DefBuckets,
			},
		),
		UpstreamBytesRead: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "audioproxy_upstream_bytes_read_total",
				Help: "Total number of bytes read from upstream origins",
			},
		),
	}
}

package extract

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CallsTotal   *prometheus.CounterVec   // Вызовы по операции и результату
	CallLatency  *prometheus.HistogramVec // Длительность вызовов
	InFlight     prometheus.Gauge         // Работающие процессы yt-dlp
	QueueTimeout prometheus.Counter       // Вызовы, не дождавшиеся свободного слота
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audioproxy_extract_calls_total",
				Help: "Total number of extraction provider calls",
			},
			[]string{"operation", "result"},
		),
		CallLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "audioproxy_extract_call_latency_seconds",
				Help:    "Latency of extraction provider calls in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"operation"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "audioproxy_extract_inflight",
				Help: "Number of extractor processes currently running",
			},
		),
		QueueTimeout: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "audioproxy_extract_queue_timeouts_total",
				Help: "Calls that gave up waiting for a free extractor slot",
			},
		),
	}
}

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CacheHitsTotal   prometheus.Counter // Количество попаданий в кэш
	CacheMissesTotal prometheus.Counter // Количество промахов (включая просроченные записи)
	CacheEntries     prometheus.Gauge   // Текущее количество записей
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "audioproxy_cache_hits_total",
				Help: "Total number of edge cache hits",
			},
		),
		CacheMissesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "audioproxy_cache_misses_total",
				Help: "Total number of edge cache misses",
			},
		),
		CacheEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "audioproxy_cache_entries",
				Help: "Current number of edge cache entries",
			},
		),
	}
}

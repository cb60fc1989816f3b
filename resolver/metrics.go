package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ResolutionsTotal *prometheus.CounterVec   // Результаты разрешения запросов
	ItemSourceTotal  *prometheus.CounterVec   // Откуда получен URL элемента: url/search_api/provider
	SearchAPITotal   *prometheus.CounterVec   // Вызовы официального API: ok/empty/error/throttled
	ResolveLatency   prometheus.Histogram     // Длительность разрешения
	SharedTotal      prometheus.Counter       // Запросы, присоединившиеся к уже идущему разрешению
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ResolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audioproxy_resolver_resolutions_total",
				Help: "Total number of query resolutions by result",
			},
			[]string{"result"},
		),
		ItemSourceTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audioproxy_resolver_item_source_total",
				Help: "Where the item URL of a resolution came from",
			},
			[]string{"source"},
		),
		SearchAPITotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audioproxy_resolver_search_api_total",
				Help: "Total number of search API shortcut attempts by outcome",
			},
			[]string{"outcome"},
		),
		ResolveLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "audioproxy_resolver_latency_seconds",
				Help:    "Latency of query resolutions in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
			},
		),
		SharedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "audioproxy_resolver_shared_total",
				Help: "Resolutions whose result was shared with concurrent identical queries",
			},
		),
	}
}

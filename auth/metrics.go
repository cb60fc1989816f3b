package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AuthRequestsTotal *prometheus.CounterVec // Количество проверок ключа
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		AuthRequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "audioproxy_auth_requests_total",
				Help: "Total number of API key checks",
			},
			[]string{"result"}, // success/missing/invalid/disabled
		),
	}
}

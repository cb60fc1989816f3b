package auth

import (
	"crypto/subtle"

	"audioproxy/apigw"
	"audioproxy/logger"
)

// StaticAuthenticator сравнивает ключ из заголовка запроса с общим секретом сервера.
type StaticAuthenticator struct {
	header  string
	secret  []byte
	metrics *Metrics
}

// NewStaticAuthenticator создает новый экземпляр аутентификатора.
// Пустой secret означает, что проверка отключена и допускаются все запросы.
func NewStaticAuthenticator(header, secret string, metrics *Metrics) *StaticAuthenticator {
	if header == "" {
		header = DefaultHeader
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &StaticAuthenticator{
		header:  header,
		secret:  []byte(secret),
		metrics: metrics,
	}
}

// Enabled сообщает, настроен ли секрет
func (s *StaticAuthenticator) Enabled() bool {
	return len(s.secret) > 0
}

// Authenticate реализует интерфейс Authenticator
func (s *StaticAuthenticator) Authenticate(req *apigw.APIRequest) error {
	if !s.Enabled() {
		s.metrics.AuthRequestsTotal.WithLabelValues("disabled").Inc()
		return nil
	}

	provided := req.Headers.Get(s.header)
	if provided == "" {
		logger.Debug("Missing %s header from client %s", s.header, req.ClientID)
		s.metrics.AuthRequestsTotal.WithLabelValues("missing").Inc()
		return ErrMissingAPIKey
	}

	// Сравнение, безопасное от атак по времени
	if subtle.ConstantTimeCompare([]byte(provided), s.secret) != 1 {
		logger.Debug("API key mismatch for client %s", req.ClientID)
		s.metrics.AuthRequestsTotal.WithLabelValues("invalid").Inc()
		return ErrInvalidAPIKey
	}

	s.metrics.AuthRequestsTotal.WithLabelValues("success").Inc()
	return nil
}

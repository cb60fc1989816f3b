package routing

import (
	"context"
	"fmt"
	"net/http"

	"audioproxy/resolver"
)

// StreamResolver - модуль, превращающий запрос пользователя в аудиопоток
type StreamResolver interface {
	Resolve(ctx context.Context, query string) (resolver.Candidate, error)
}

// Admitter - ограничитель частоты запросов по клиенту
type Admitter interface {
	Admit(clientID string) bool
}

// StreamResponse - тело ответа /api/stream
type StreamResponse struct {
	AudioURL string `json:"audioUrl"`
	Mime     string `json:"mime"`
}

// Config содержит конфигурацию маршрутизации и прокси
type Config struct {
	// PassthroughHeaders - заголовки ответа upstream, которые передаются клиенту
	PassthroughHeaders []string `yaml:"passthrough_headers"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		PassthroughHeaders: []string{"Content-Type"},
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	for _, h := range c.PassthroughHeaders {
		if h == "" {
			return fmt.Errorf("passthrough_headers cannot contain empty names")
		}
		switch http.CanonicalHeaderKey(h) {
		case "Connection", "Transfer-Encoding", "Keep-Alive", "Upgrade":
			return fmt.Errorf("passthrough_headers: %s is a hop-by-hop header", h)
		}
	}
	return nil
}

package resolver

import (
	"fmt"
	"strings"
	"time"
)

// Config содержит конфигурацию разрешения запросов
type Config struct {
	// PreferredMimes - предпочтительные MIME типы
	PreferredMimes []string `yaml:"preferred_mimes"`

	// SearchAPI - официальное API поиска (используется, если задан ключ)
	SearchAPI SearchAPIConfig `yaml:"search_api"`
}

// SearchAPIConfig - настройки YouTube Data API
type SearchAPIConfig struct {
	// Key - ключ API; обычно из переменной окружения YT_API_KEY. Пусто - API не используется.
	Key string `yaml:"key" json:"-"`

	// Endpoint - адрес метода search
	Endpoint string `yaml:"endpoint"`

	// WatchURLPrefix - префикс, к которому дописывается videoId
	WatchURLPrefix string `yaml:"watch_url_prefix"`

	// Timeout - таймаут соединения и чтения ответа
	Timeout time.Duration `yaml:"timeout"`

	// RequestsPerDay - бюджет вызовов API; при исчерпании ускорение пропускается.
	// 0 (по умолчанию) - без ограничения, API вызывается для каждого текстового запроса.
	RequestsPerDay int `yaml:"requests_per_day"`

	// Burst - сколько вызовов можно сделать подряд, если задан RequestsPerDay
	Burst int `yaml:"burst"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		PreferredMimes: append([]string(nil), DefaultPreferredMimes...),
		SearchAPI: SearchAPIConfig{
			Endpoint:       "https://www.googleapis.com/youtube/v3/search",
			WatchURLPrefix: "https://www.youtube.com/watch?v=",
			Timeout:        10 * time.Second,
			Burst:          10,
		},
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	for _, m := range c.PreferredMimes {
		if !strings.Contains(m, "/") {
			return fmt.Errorf("preferred_mimes: %q is not a MIME type", m)
		}
	}
	if c.SearchAPI.Key == "" {
		return nil
	}
	if !IsURL(c.SearchAPI.Endpoint) {
		return fmt.Errorf("search_api.endpoint must be an http(s) URL")
	}
	if c.SearchAPI.WatchURLPrefix == "" {
		return fmt.Errorf("search_api.watch_url_prefix cannot be empty")
	}
	if c.SearchAPI.Timeout <= 0 {
		return fmt.Errorf("search_api.timeout must be positive")
	}
	if c.SearchAPI.RequestsPerDay < 0 {
		return fmt.Errorf("search_api.requests_per_day cannot be negative")
	}
	if c.SearchAPI.RequestsPerDay > 0 && c.SearchAPI.Burst <= 0 {
		return fmt.Errorf("search_api.burst must be positive when requests_per_day is set")
	}
	return nil
}

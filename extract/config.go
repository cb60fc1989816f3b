package extract

import (
	"fmt"
	"time"
)

// Бэкенды поиска по свободному тексту
const (
	SearchBackendYTSearch = "ytsearch"
	SearchBackendYtDlp    = "yt-dlp"
)

// Config содержит конфигурацию провайдера извлечения
type Config struct {
	// Binary - путь к yt-dlp или имя в PATH
	Binary string `yaml:"binary"`

	// ExtraArgs добавляются к каждому вызову yt-dlp (например, --cookies)
	ExtraArgs []string `yaml:"extra_args"`

	// Timeout - предельное время одного вызова yt-dlp или поиска
	Timeout time.Duration `yaml:"timeout"`

	// MaxConcurrent - сколько процессов yt-dlp может работать одновременно
	MaxConcurrent int `yaml:"max_concurrent"`

	// SearchBackend - чем искать по тексту: ytsearch (веб-поиск) или yt-dlp
	SearchBackend string `yaml:"search_backend"`

	// SearchLimit - сколько результатов поиска возвращать
	SearchLimit int `yaml:"search_limit"`

	// WatchURLPrefix - префикс URL элемента, к которому дописывается id видео
	WatchURLPrefix string `yaml:"watch_url_prefix"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Binary:         "yt-dlp",
		Timeout:        60 * time.Second,
		MaxConcurrent:  4,
		SearchBackend:  SearchBackendYTSearch,
		SearchLimit:    5,
		WatchURLPrefix: "https://www.youtube.com/watch?v=",
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("binary cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max_concurrent must be positive")
	}
	switch c.SearchBackend {
	case SearchBackendYTSearch, SearchBackendYtDlp:
	default:
		return fmt.Errorf("unknown search_backend %q", c.SearchBackend)
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("search_limit must be positive")
	}
	if c.WatchURLPrefix == "" {
		return fmt.Errorf("watch_url_prefix cannot be empty")
	}
	return nil
}

package fetch

import (
	"fmt"
	"time"
)

// DefaultUserAgent - заголовок User-Agent для всех исходящих запросов
const DefaultUserAgent = "NewPipe-Extractor-Example/1.0"

// Config содержит конфигурацию клиента upstream
type Config struct {
	UserAgent string `yaml:"user_agent"`

	// ConnectTimeout - таймаут установки TCP соединения
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// ReadTimeout - сколько ждать заголовков ответа и каждой порции тела
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// MaxIdleConnsPerHost - размер пула keep-alive соединений на хост
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		UserAgent:           DefaultUserAgent,
		ConnectTimeout:      10 * time.Second,
		ReadTimeout:         30 * time.Second,
		MaxIdleConnsPerHost: 8,
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.UserAgent == "" {
		return fmt.Errorf("user_agent cannot be empty")
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect_timeout must be positive")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}
	if c.MaxIdleConnsPerHost < 0 {
		return fmt.Errorf("max_idle_conns_per_host cannot be negative")
	}
	return nil
}

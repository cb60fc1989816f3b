package ratelimit

import (
	"fmt"
	"time"
)

// Config содержит конфигурацию ограничителя запросов
type Config struct {
	// Limit - сколько запросов клиент может сделать за окно
	Limit int `yaml:"limit"`

	// Window - длина скользящего окна
	Window time.Duration `yaml:"window"`

	// IdleEviction - если > 0, клиенты без запросов дольше Window+IdleEviction
	// периодически удаляются. 0 (по умолчанию) хранит клиентов всё время жизни процесса.
	IdleEviction time.Duration `yaml:"idle_eviction"`
}

// DefaultConfig возвращает конфигурацию по умолчанию: 10 запросов за 60 секунд
func DefaultConfig() *Config {
	return &Config{
		Limit:  10,
		Window: 60 * time.Second,
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be positive")
	}
	if c.IdleEviction < 0 {
		return fmt.Errorf("idle_eviction cannot be negative")
	}
	return nil
}

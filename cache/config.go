package cache

import (
	"fmt"
	"time"
)

// Config содержит конфигурацию кэша проверенных адресов
type Config struct {
	// TTL - сколько запись считается действительной после успешного запроса к upstream
	TTL time.Duration `yaml:"ttl"`

	// SweepInterval - если > 0, просроченные записи периодически удаляются.
	// 0 (по умолчанию): записи только игнорируются после истечения и перезаписываются.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		TTL: 45 * time.Second,
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("sweep_interval cannot be negative")
	}
	return nil
}

package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"audioproxy/apigw"
	"audioproxy/auth"
	"audioproxy/cache"
	"audioproxy/extract"
	"audioproxy/fetch"
	"audioproxy/logger"
	"audioproxy/monitoring"
	"audioproxy/ratelimit"
	"audioproxy/resolver"
	"audioproxy/routing"
)

// AppConfig содержит полную конфигурацию приложения
type AppConfig struct {
	// Конфигурация API Gateway
	Server ServerConfig `yaml:"server"`

	// Конфигурация логирования
	Logging LoggingConfig `yaml:"logging"`

	// Конфигурация проверки ключа API для /api/proxy
	Auth auth.Config `yaml:"auth"`

	// Ограничение частоты запросов к /api/proxy
	RateLimit ratelimit.Config `yaml:"rate_limit"`

	// Кэш проверенных upstream адресов
	Cache cache.Config `yaml:"cache"`

	// Клиент upstream для проксирования
	Upstream fetch.Config `yaml:"upstream"`

	// Разрешение запросов /api/stream
	Resolver resolver.Config `yaml:"resolver"`

	// Провайдер извлечения потоков
	Extract extract.Config `yaml:"extract"`

	// Поведение прокси
	Proxy routing.Config `yaml:"proxy"`

	// Конфигурация мониторинга
	Monitoring monitoring.Config `yaml:"monitoring"`
}

// ServerConfig содержит конфигурацию HTTP сервера
type ServerConfig struct {
	ListenAddress     string        `yaml:"listen_address"`
	TLSCertFile       string        `yaml:"tls_cert_file"`
	TLSKeyFile        string        `yaml:"tls_key_file"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	TrustForwardedFor bool          `yaml:"trust_forwarded_for"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig содержит конфигурацию логирования
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultAppConfig возвращает конфигурацию по умолчанию
func DefaultAppConfig() *AppConfig {
	gw := apigw.DefaultConfig()
	return &AppConfig{
		Server: ServerConfig{
			ListenAddress:   gw.ListenAddress,
			ReadTimeout:     gw.ReadTimeout,
			WriteTimeout:    gw.WriteTimeout,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Auth:       *auth.DefaultConfig(),
		RateLimit:  *ratelimit.DefaultConfig(),
		Cache:      *cache.DefaultConfig(),
		Upstream:   *fetch.DefaultConfig(),
		Resolver:   *resolver.DefaultConfig(),
		Extract:    *extract.DefaultConfig(),
		Proxy:      *routing.DefaultConfig(),
		Monitoring: *monitoring.DefaultConfig(),
	}
}

// LoadConfig загружает конфигурацию из файла поверх значений по умолчанию
func LoadConfig(filename string) (*AppConfig, error) {
	// Читаем файл
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	// Начинаем с конфигурации по умолчанию
	config := DefaultAppConfig()

	// Парсим YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	// Валидируем конфигурацию
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnvOverrides применяет переменные окружения: PORT, YT_API_KEY, PROXY_API_KEY, LOG_LEVEL.
// Некорректный PORT игнорируется, адрес из конфигурации остается.
func applyEnvOverrides(config *AppConfig, getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
			logger.Warn("Ignoring invalid PORT %q, listening on %s", port, config.Server.ListenAddress)
		} else {
			host, _, err := net.SplitHostPort(config.Server.ListenAddress)
			if err != nil {
				host = ""
			}
			config.Server.ListenAddress = net.JoinHostPort(host, port)
			logger.Debug("Override from env: server.listen_address = %s", config.Server.ListenAddress)
		}
	}

	if key := getenv("YT_API_KEY"); key != "" {
		config.Resolver.SearchAPI.Key = key
		logger.Debug("Override from env: resolver.search_api.key is set")
	}

	if key := getenv("PROXY_API_KEY"); key != "" {
		config.Auth.APIKey = key
		logger.Debug("Override from env: auth.api_key is set")
	}

	if level := getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
		logger.Debug("Override from env: logging.level = %s", level)
	}
}

// Validate проверяет корректность конфигурации
func (c *AppConfig) Validate() error {
	if err := c.ToAPIGatewayConfig().Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server config: shutdown_timeout must be positive")
	}

	// Валидируем уровень логирования
	if !logger.IsValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	// Валидируем конфигурации модулей
	validators := []struct {
		name     string
		validate func() error
	}{
		{"auth", c.Auth.Validate},
		{"rate_limit", c.RateLimit.Validate},
		{"cache", c.Cache.Validate},
		{"upstream", c.Upstream.Validate},
		{"resolver", c.Resolver.Validate},
		{"extract", c.Extract.Validate},
		{"proxy", c.Proxy.Validate},
		{"monitoring", c.Monitoring.Validate},
	}
	for _, v := range validators {
		if err := v.validate(); err != nil {
			return fmt.Errorf("%s config: %w", v.name, err)
		}
	}

	return nil
}

// ToAPIGatewayConfig преобразует в конфигурацию API Gateway
func (c *AppConfig) ToAPIGatewayConfig() apigw.Config {
	return apigw.Config{
		ListenAddress:     c.Server.ListenAddress,
		TLSCertFile:       c.Server.TLSCertFile,
		TLSKeyFile:        c.Server.TLSKeyFile,
		ReadTimeout:       c.Server.ReadTimeout,
		WriteTimeout:      c.Server.WriteTimeout,
		TrustForwardedFor: c.Server.TrustForwardedFor,
	}
}

// searchAPIUpstreamConfig - клиент для API поиска: тот же User-Agent, свои таймауты
func (c *AppConfig) searchAPIUpstreamConfig() *fetch.Config {
	cfg := c.Upstream
	cfg.ConnectTimeout = c.Resolver.SearchAPI.Timeout
	cfg.ReadTimeout = c.Resolver.SearchAPI.Timeout
	return &cfg
}

// SaveConfig сохраняет конфигурацию в файл (для генерации примера).
// Секреты не записываются.
func (c *AppConfig) SaveConfig(filename string) error {
	redacted := *c
	redacted.Auth.APIKey = ""
	redacted.Resolver.SearchAPI.Key = ""

	data, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}

	return nil
}

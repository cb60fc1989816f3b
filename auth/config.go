package auth

import "fmt"

// DefaultHeader - заголовок, в котором клиент передает ключ
const DefaultHeader = "X-API-KEY"

// Config содержит конфигурацию для модуля аутентификации
type Config struct {
	// Header - имя заголовка с ключом
	Header string `yaml:"header" json:"header"`

	// APIKey - общий секрет. Пустое значение отключает проверку.
	// Обычно приходит из переменной окружения PROXY_API_KEY.
	APIKey string `yaml:"api_key" json:"-"`
}

// DefaultConfig возвращает конфигурацию по умолчанию: проверка выключена
func DefaultConfig() *Config {
	return &Config{
		Header: DefaultHeader,
	}
}

// Validate проверяет корректность конфигурации аутентификации
func (c *Config) Validate() error {
	if c.Header == "" {
		return fmt.Errorf("header cannot be empty")
	}
	return nil
}

// NewAuthenticatorFromConfig создает аутентификатор на основе конфигурации
func NewAuthenticatorFromConfig(config *Config, metrics *Metrics) (Authenticator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return NewStaticAuthenticator(config.Header, config.APIKey, metrics), nil
}

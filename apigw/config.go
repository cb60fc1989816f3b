package apigw

import (
	"fmt"
	"time"
)

// Config содержит конфигурацию для API Gateway
type Config struct {
	// ListenAddress - адрес и порт для прослушивания (например, ":7000")
	ListenAddress string

	// TLSCertFile - путь к файлу SSL-сертификата (опционально, для включения HTTPS)
	TLSCertFile string

	// TLSKeyFile - путь к файлу приватного ключа SSL (опционально)
	TLSKeyFile string

	// ReadTimeout - таймаут на чтение всего запроса, включая тело
	ReadTimeout time.Duration

	// WriteTimeout - таймаут на запись всего ответа.
	// 0 отключает таймаут: проксируемый аудиопоток может идти минутами.
	WriteTimeout time.Duration

	// TrustForwardedFor - брать идентификатор клиента из X-Forwarded-For
	// (сервис развернут за балансировщиком)
	TrustForwardedFor bool
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		ListenAddress: ":7000",
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  0,
	}
}

// Validate проверяет корректность конфигурации
func (c Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen_address cannot be empty")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout cannot be negative")
	}
	if (c.TLSCertFile != "") != (c.TLSKeyFile != "") {
		return fmt.Errorf("both tls_cert_file and tls_key_file must be specified for TLS")
	}
	return nil
}

package auth

import (
	"errors"

	"audioproxy/apigw"
)

// Authenticator - интерфейс модулей аутентификации прокси.
type Authenticator interface {
	// Authenticate проверяет ключ, переданный клиентом в заголовке запроса.
	// nil означает, что запрос допущен.
	Authenticate(req *apigw.APIRequest) error

	// Enabled сообщает, настроен ли на сервере секрет
	Enabled() bool
}

// Пользовательские ошибки для точной диагностики
var (
	// ErrMissingAPIKey - секрет настроен, а клиент ключ не передал.
	ErrMissingAPIKey = errors.New("missing API key")
	// ErrInvalidAPIKey - переданный ключ не совпадает с секретом сервера.
	ErrInvalidAPIKey = errors.New("invalid API key")
)

package apigw

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// Operation определяет тип операции API.
type Operation int

const (
	UnsupportedOperation Operation = iota
	Health
	ResolveStream
	ProxyStream
)

// String возвращает строковое представление операции
func (op Operation) String() string {
	switch op {
	case Health:
		return "HEALTH"
	case ResolveStream:
		return "RESOLVE_STREAM"
	case ProxyStream:
		return "PROXY_STREAM"
	default:
		return "UNSUPPORTED_OPERATION"
	}
}

// APIRequest - внутреннее представление запроса к сервису.
// Создается модулем API Gateway из http.Request.
type APIRequest struct {
	// Тип операции, определенный парсером по пути.
	Operation Operation

	// ID запроса, возвращается клиенту в X-Request-Id.
	RequestID string

	// Query - строка запроса для /api/stream (URL или свободный текст).
	Query string

	// TargetURL - адрес для /api/proxy, как его прислал клиент.
	TargetURL string

	// ClientID - идентификатор клиента для rate limiting (IP адрес).
	ClientID string

	// Оригинальные заголовки HTTP запроса.
	Headers http.Header

	// Оригинальные query-параметры запроса.
	Params url.Values

	// Контекст входящего запроса. Отменяется, когда клиент отключается,
	// поэтому все исходящие вызовы должны его использовать.
	Context context.Context
}

// APIResponse - внутреннее представление ответа.
// Формируется нижележащими модулями и используется API Gateway для отправки ответа.
type APIResponse struct {
	// HTTP код состояния для отправки клиенту.
	StatusCode int

	// Заголовки для отправки клиенту.
	Headers http.Header

	// Тело ответа. Для проксирования это поток upstream,
	// он копируется клиенту по частям, без буферизации целиком.
	Body io.ReadCloser

	// Ошибка, возникшая при обработке. Если не nil, Body игнорируется
	// и клиент получает JSON {"error": "..."}.
	Error error
}

// RequestHandler - интерфейс следующего по цепочке модуля (routing engine).
type RequestHandler interface {
	// Handle принимает распарсенный APIRequest и выполняет всю бизнес-логику,
	// возвращая APIResponse, готовый для отправки клиенту.
	Handle(req *APIRequest) *APIResponse
}

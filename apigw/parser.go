package apigw

import (
	"net"
	"net/http"
	"strings"

	"audioproxy/logger"
)

// Пути, обслуживаемые шлюзом
const (
	PathHealth = "/health"
	PathStream = "/api/stream"
	PathProxy  = "/api/proxy"
)

// RequestParser отвечает за парсинг HTTP запросов в APIRequest
type RequestParser struct {
	trustForwardedFor bool
}

// NewRequestParser создает новый экземпляр парсера
func NewRequestParser(trustForwardedFor bool) *RequestParser {
	return &RequestParser{trustForwardedFor: trustForwardedFor}
}

// Parse анализирует HTTP запрос и создает APIRequest.
// Ошибки имеют тип *StatusError и готовы к отправке клиенту.
func (p *RequestParser) Parse(r *http.Request) (*APIRequest, error) {
	logger.Debug("Parsing HTTP request: %s %s", r.Method, r.URL.Path)

	req := &APIRequest{
		Headers:  r.Header.Clone(),
		Params:   r.URL.Query(),
		ClientID: p.clientID(r),
		Context:  r.Context(),
	}

	switch strings.TrimSuffix(r.URL.Path, "/") {
	case PathHealth:
		req.Operation = Health
	case PathStream:
		req.Operation = ResolveStream
	case PathProxy:
		req.Operation = ProxyStream
	default:
		return nil, ErrNotFound
	}

	if r.Method != http.MethodGet {
		return nil, ErrMethodNotAllowed
	}

	switch req.Operation {
	case ResolveStream:
		req.Query = req.Params.Get("query")
		if req.Query == "" {
			return nil, ErrMissingQuery
		}
	case ProxyStream:
		req.TargetURL = req.Params.Get("url")
		if req.TargetURL == "" {
			return nil, ErrMissingURL
		}
	}

	logger.Debug("Determined operation: %s, client: %s", req.Operation, req.ClientID)
	return req, nil
}

// clientID определяет идентификатор клиента: IP адрес соединения или,
// если шлюз стоит за доверенным балансировщиком, первый адрес из X-Forwarded-For.
func (p *RequestParser) clientID(r *http.Request) string {
	if p.trustForwardedFor {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

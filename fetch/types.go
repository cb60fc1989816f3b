package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
)

// Response - ответ upstream: статус, заголовки и еще не прочитанное тело.
// Вызывающий обязан закрыть Body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Upstream - клиент, выполняющий GET к произвольному URL
type Upstream interface {
	// Fetch открывает соединение и возвращает ответ, как только пришли заголовки.
	// Отмена ctx прерывает и ожидание заголовков, и чтение тела.
	Fetch(ctx context.Context, url string, header http.Header) (*Response, error)
}

// ErrReadTimeout возвращается из Body.Read, если upstream молчит дольше ReadTimeout
var ErrReadTimeout = errors.New("upstream read timed out")

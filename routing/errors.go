package routing

import (
	"errors"
	"fmt"
	"net/http"

	"audioproxy/apigw"
	"audioproxy/auth"
	"audioproxy/ratelimit"
	"audioproxy/resolver"
)

// ErrInvalidURL - адрес для прокси не является http(s) URL
var ErrInvalidURL = &apigw.StatusError{Status: http.StatusBadRequest, Message: "invalid url"}

// UpstreamStatusError - upstream ответил кодом >= 400
type UpstreamStatusError struct {
	Code int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream returned %d", e.Code)
}

// toStatusError переводит ошибку модуля в ошибку с HTTP статусом для клиента
func toStatusError(err error) error {
	var (
		se          *apigw.StatusError
		upstreamErr *UpstreamStatusError
		resErr      *resolver.ResolutionError
	)

	switch {
	case errors.As(err, &se):
		return err
	case errors.Is(err, auth.ErrMissingAPIKey), errors.Is(err, auth.ErrInvalidAPIKey):
		// клиенту не сообщаем, чего именно не хватило
		return apigw.NewStatusError(http.StatusUnauthorized, "missing or invalid API key", err)
	case errors.Is(err, ratelimit.ErrRateLimited):
		return apigw.NewStatusError(http.StatusTooManyRequests, err.Error(), err)
	case errors.As(err, &upstreamErr):
		return apigw.NewStatusError(http.StatusBadGateway, upstreamErr.Error(), err)
	case errors.Is(err, resolver.ErrNoSearchResults), errors.Is(err, resolver.ErrNoAudioStreams):
		return apigw.NewStatusError(http.StatusNotFound, err.Error(), err)
	case errors.As(err, &resErr):
		return apigw.NewStatusError(http.StatusInternalServerError, resErr.Error(), err)
	default:
		return apigw.NewStatusError(http.StatusInternalServerError, err.Error(), err)
	}
}

package apigw

import (
	"errors"
	"net/http"
)

// StatusError - ошибка, которая знает свой HTTP статус и сообщение для клиента.
// Сообщение уходит клиенту как есть, поэтому не должно содержать внутренних деталей.
type StatusError struct {
	Status  int
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	return e.Message
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// NewStatusError создает StatusError, сохраняя исходную ошибку для логов
func NewStatusError(status int, message string, cause error) *StatusError {
	return &StatusError{Status: status, Message: message, Err: cause}
}

// Ошибки уровня разбора запроса
var (
	ErrMissingQuery     = &StatusError{Status: http.StatusBadRequest, Message: "missing query"}
	ErrMissingURL       = &StatusError{Status: http.StatusBadRequest, Message: "missing url"}
	ErrNotFound         = &StatusError{Status: http.StatusNotFound, Message: "not found"}
	ErrMethodNotAllowed = &StatusError{Status: http.StatusMethodNotAllowed, Message: "method not allowed"}
)

// StatusOf возвращает HTTP статус и сообщение для произвольной ошибки.
// Ошибки без статуса считаются внутренними (500) и отдаются с текстом ошибки.
func StatusOf(err error) (int, string) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status, se.Message
	}
	return http.StatusInternalServerError, err.Error()
}

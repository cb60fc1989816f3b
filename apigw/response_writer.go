package apigw

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"audioproxy/logger"
)

// streamBufferSize - размер буфера при копировании потока upstream клиенту
const streamBufferSize = 32 * 1024

// ResponseWriter отвечает за формирование HTTP ответов из APIResponse
type ResponseWriter struct{}

// NewResponseWriter создает новый экземпляр writer'а ответов
func NewResponseWriter() *ResponseWriter {
	return &ResponseWriter{}
}

// WriteResponse записывает APIResponse в http.ResponseWriter.
// Тело копируется порциями с flush после каждой записи; при ошибке записи
// (клиент отключился) копирование прекращается, а тело закрывается.
func (rw *ResponseWriter) WriteResponse(w http.ResponseWriter, resp *APIResponse) (int64, error) {
	logger.Debug("Writing response: status=%d, hasBody=%t, hasError=%t",
		resp.StatusCode, resp.Body != nil, resp.Error != nil)

	if resp.Error != nil {
		if resp.Body != nil {
			resp.Body.Close()
		}
		return 0, rw.WriteError(w, resp.Error)
	}

	for key, values := range resp.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}

	statusCode := resp.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	w.WriteHeader(statusCode)

	if resp.Body == nil {
		return 0, nil
	}
	defer resp.Body.Close()

	n, err := io.CopyBuffer(&flushWriter{w: w}, resp.Body, make([]byte, streamBufferSize))
	if err != nil {
		logger.Debug("Error writing response body after %d bytes: %v", n, err)
	}
	return n, err
}

// WriteError записывает ответ об ошибке в виде {"error": "..."}
func (rw *ResponseWriter) WriteError(w http.ResponseWriter, err error) error {
	status, message := StatusOf(err)
	logger.Debug("Writing error response: status=%d, message=%s, cause=%v", status, message, errors.Unwrap(err))

	body, jsonErr := json.Marshal(ErrorBody{Error: message})
	if jsonErr != nil {
		http.Error(w, message, http.StatusInternalServerError)
		return jsonErr
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, writeErr := w.Write(body)
	return writeErr
}

// ErrorBody - JSON тело ответа об ошибке
type ErrorBody struct {
	Error string `json:"error"`
}

// JSONResponse сериализует v и формирует ответ с Content-Type application/json
func JSONResponse(status int, v interface{}) *APIResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return &APIResponse{StatusCode: http.StatusInternalServerError, Error: err}
	}

	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")
	headers.Set("Content-Length", strconv.Itoa(len(body)))
	return &APIResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

// ErrorResponse формирует APIResponse с ошибкой
func ErrorResponse(err error) *APIResponse {
	status, _ := StatusOf(err)
	return &APIResponse{StatusCode: status, Error: err}
}

// flushWriter сбрасывает буфер http.ResponseWriter после каждой записи,
// чтобы клиент получал поток сразу, а не по заполнении буфера сервера.
type flushWriter struct {
	w http.ResponseWriter
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if err != nil {
		return n, err
	}
	if f, ok := fw.w.(http.Flusher); ok {
		f.Flush()
	}
	return n, nil
}

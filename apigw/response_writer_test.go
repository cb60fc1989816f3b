package apigw

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestWriteResponse_StreamsBody(t *testing.T) {
	rec := httptest.NewRecorder()
	body := &trackingBody{Reader: strings.NewReader("ID3 audio bytes")}

	headers := make(http.Header)
	headers.Set("Content-Type", "audio/mpeg")

	n, err := NewResponseWriter().WriteResponse(rec, &APIResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       body,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(len("ID3 audio bytes")), n)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ID3 audio bytes", rec.Body.String())
	assert.True(t, rec.Flushed, "stream should be flushed to the client")
	assert.True(t, body.closed, "body should be closed after copy")
}

func TestWriteResponse_ErrorBody(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		expected string
	}{
		{"MissingQuery", ErrMissingQuery, http.StatusBadRequest, `{"error":"missing query"}`},
		{"Wrapped", fmt.Errorf("proxy: %w", NewStatusError(http.StatusBadGateway, "upstream returned 404", nil)), http.StatusBadGateway, `{"error":"upstream returned 404"}`},
		{"Untyped", errors.New("extractor exploded"), http.StatusInternalServerError, `{"error":"extractor exploded"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			body := &trackingBody{Reader: strings.NewReader("ignored")}

			_, err := NewResponseWriter().WriteResponse(rec, &APIResponse{Error: tt.err, Body: body})
			require.NoError(t, err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.expected, rec.Body.String())
			assert.True(t, body.closed, "body must be released even when an error is written")
		})
	}
}

func TestJSONResponse(t *testing.T) {
	resp := JSONResponse(http.StatusOK, map[string]string{"audioUrl": "https://a", "mime": "audio/mpeg"})
	require.Nil(t, resp.Error)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"audioUrl":"https://a","mime":"audio/mpeg"}`, string(data))
	assert.Equal(t, "application/json", resp.Headers.Get("Content-Type"))
}

type failingWriter struct {
	*httptest.ResponseRecorder
}

func (f failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestWriteResponse_ClientGone(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader("some bytes")}
	_, err := NewResponseWriter().WriteResponse(failingWriter{httptest.NewRecorder()}, &APIResponse{
		StatusCode: http.StatusOK,
		Body:       body,
	})

	assert.Error(t, err)
	assert.True(t, body.closed, "upstream body must be closed when the client goes away")
}

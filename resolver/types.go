package resolver

import (
	"context"
	"errors"
	"regexp"
)

// Candidate - один вариант аудиопотока, возвращенный провайдером извлечения.
type Candidate struct {
	// Locator - откуда брать байты: прямой URL или адрес манифеста
	Locator string

	// MimeType - MIME тип потока, может быть пустым
	MimeType string

	// IsURL - Locator является прямым URL на данные, а не манифестом
	// или иным представлением контента
	IsURL bool
}

// Provider - платформа, из которой извлекаются потоки.
type Provider interface {
	// Search возвращает URL элементов, найденных по свободному тексту, лучшие первыми
	Search(ctx context.Context, query string) ([]string, error)

	// Streams перечисляет аудиопотоки элемента в порядке, заданном платформой
	Streams(ctx context.Context, itemURL string) ([]Candidate, error)
}

// SearchAPI - официальное API поиска платформы. Используется как ускорение:
// любая ошибка означает "результата нет", ok=false.
type SearchAPI interface {
	TopResult(ctx context.Context, query string) (videoID string, ok bool)
}

// Ошибки разрешения запроса
var (
	ErrNoSearchResults = errors.New("no search results")
	ErrNoAudioStreams  = errors.New("no audio streams")
)

// ResolutionError - сбой провайдера извлечения (ошибка платформы или ввода-вывода).
// Сообщение исходной ошибки сохраняется.
type ResolutionError struct {
	Op  string
	Err error
}

func (e *ResolutionError) Error() string {
	return e.Err.Error()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

var urlPattern = regexp.MustCompile(`^(?i)https?://.*$`)

// IsURL сообщает, выглядит ли строка как http(s) URL (без учета регистра схемы)
func IsURL(s string) bool {
	return urlPattern.MatchString(s)
}

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"audioproxy/logger"
)

// Fetcher реализует Upstream поверх net/http
type Fetcher struct {
	client      *http.Client
	userAgent   string
	readTimeout time.Duration
	metrics     *Metrics
}

var _ Upstream = (*Fetcher)(nil)

// NewFetcher создает клиент upstream. metrics может быть nil.
func NewFetcher(cfg *Config, metrics *Metrics) *Fetcher {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Fetcher{
		client:      &http.Client{Transport: transport},
		userAgent:   cfg.UserAgent,
		readTimeout: cfg.ReadTimeout,
		metrics:     metrics,
	}
}

// Fetch выполняет GET rawURL. Редиректы выполняются клиентом.
// В логах и ошибках query-строка адреса скрыта: в ней бывают ключи API и подписи.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	logURL := RedactURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build upstream request: %w", redactError(err, logURL))
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("User-Agent", f.userAgent)

	logger.Debug("Fetching upstream %s", logURL)
	resp, err := f.client.Do(req)
	f.metrics.UpstreamLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		cancel()
		f.metrics.UpstreamRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("upstream request failed: %w", redactError(err, logURL))
	}

	f.metrics.UpstreamRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	logger.Debug("Upstream %s answered %d (%s)", logURL, resp.StatusCode, resp.Header.Get("Content-Type"))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       newTimeoutBody(resp.Body, f.readTimeout, cancel, f.metrics),
	}, nil
}

// RedactURL оставляет от адреса схему, хост и путь. Непарсящийся адрес заменяется заглушкой.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<unparsable url>"
	}
	redacted := url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}
	out := redacted.String()
	if u.RawQuery != "" {
		out += "?<redacted>"
	}
	return out
}

// redactError подменяет адрес в *url.Error, который net/http печатает в тексте ошибки
func redactError(err error, logURL string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = logURL
	}
	return err
}

// timeoutBody ограничивает время каждого Read. Таймер идет только пока Read
// заблокирован, медленный клиент на другой стороне прокси его не расходует.
// Каждый Read получает свой номер: сработавший с опозданием таймер
// уже завершившегося Read ничего не отменяет.
type timeoutBody struct {
	body    io.ReadCloser
	timeout time.Duration
	cancel  context.CancelFunc
	metrics *Metrics

	mu       sync.Mutex
	gen      uint64
	reading  bool
	timedOut bool
}

func newTimeoutBody(body io.ReadCloser, timeout time.Duration, cancel context.CancelFunc, metrics *Metrics) *timeoutBody {
	return &timeoutBody{body: body, timeout: timeout, cancel: cancel, metrics: metrics}
}

// expire срабатывает по таймеру Read с номером gen
func (b *timeoutBody) expire(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.reading || gen != b.gen {
		return
	}
	b.timedOut = true
	b.cancel()
}

func (b *timeoutBody) Read(p []byte) (int, error) {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.reading = true
	b.mu.Unlock()

	timer := time.AfterFunc(b.timeout, func() { b.expire(gen) })
	n, err := b.body.Read(p)
	timer.Stop()

	b.mu.Lock()
	b.reading = false
	timedOut := b.timedOut
	b.mu.Unlock()

	b.metrics.UpstreamBytesRead.Add(float64(n))

	if timedOut && err != nil && !errors.Is(err, io.EOF) {
		return n, ErrReadTimeout
	}
	return n, err
}

func (b *timeoutBody) Close() error {
	err := b.body.Close()
	b.cancel()
	return err
}

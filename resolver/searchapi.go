package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"audioproxy/fetch"
	"audioproxy/logger"
)

// maxSearchResponse ограничивает размер читаемого ответа API
const maxSearchResponse = 1 << 20

// DataAPI - клиент метода search YouTube Data API v3
type DataAPI struct {
	endpoint string
	key      string
	timeout  time.Duration
	upstream fetch.Upstream
	quota    *rate.Limiter
	metrics  *Metrics
	log      *logger.Logger
}

var _ SearchAPI = (*DataAPI)(nil)

// NewDataAPI создает клиент. upstream должен иметь таймауты API поиска.
func NewDataAPI(cfg SearchAPIConfig, upstream fetch.Upstream, metrics *Metrics) (*DataAPI, error) {
	if cfg.Key == "" {
		return nil, errors.New("search API key is empty")
	}
	if upstream == nil {
		return nil, errors.New("search API requires an upstream client")
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	quota := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerDay > 0 {
		quota = rate.NewLimiter(rate.Every(24*time.Hour/time.Duration(cfg.RequestsPerDay)), cfg.Burst)
	}
	return &DataAPI{
		endpoint: cfg.Endpoint,
		key:      cfg.Key,
		timeout:  cfg.Timeout,
		upstream: upstream,
		quota:    quota,
		metrics:  metrics,
		log:      logger.Named("searchapi"),
	}, nil
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

// TopResult возвращает videoId первого результата.
// Исчерпанная квота, сетевые ошибки, не-200 и пустой ответ дают ok=false.
func (a *DataAPI) TopResult(ctx context.Context, query string) (string, bool) {
	if !a.quota.Allow() {
		a.metrics.SearchAPITotal.WithLabelValues("throttled").Inc()
		a.log.Debug("quota guard exhausted, skipping search API for %q", query)
		return "", false
	}

	id, err := a.topResult(ctx, query)
	switch {
	case err != nil:
		a.metrics.SearchAPITotal.WithLabelValues("error").Inc()
		a.log.Debug("search API failed for %q: %v", query, err)
		return "", false
	case id == "":
		a.metrics.SearchAPITotal.WithLabelValues("empty").Inc()
		return "", false
	}
	a.metrics.SearchAPITotal.WithLabelValues("ok").Inc()
	return id, true
}

func (a *DataAPI) topResult(ctx context.Context, query string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	params := url.Values{}
	params.Set("part", "id")
	params.Set("type", "video")
	params.Set("maxResults", "1")
	params.Set("q", query)
	params.Set("key", a.key)

	resp, err := a.upstream.Fetch(ctx, a.endpoint+"?"+params.Encode(), http.Header{"Accept": {"application/json"}})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search API returned %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSearchResponse)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode search API response: %w", err)
	}
	if len(parsed.Items) == 0 {
		return "", nil
	}
	return parsed.Items[0].ID.VideoID, nil
}

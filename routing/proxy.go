package routing

import (
	"fmt"
	"net/http"
	"time"

	"audioproxy/apigw"
	"audioproxy/auth"
	"audioproxy/cache"
	"audioproxy/fetch"
	"audioproxy/logger"
	"audioproxy/ratelimit"
	"audioproxy/resolver"
)

// Proxy отдает клиенту байты произвольного http(s) URL.
// Порядок проверок: ключ API, лимит частоты, валидность URL, кэш, upstream.
type Proxy struct {
	auth        auth.Authenticator
	limiter     Admitter
	cache       cache.Cache
	upstream    fetch.Upstream
	passthrough []string
	now         func() time.Time
	metrics     *Metrics
	log         *logger.Logger
}

// NewProxy создает прокси. metrics может быть nil.
func NewProxy(
	authenticator auth.Authenticator,
	limiter Admitter,
	urlCache cache.Cache,
	upstream fetch.Upstream,
	config *Config,
	metrics *Metrics,
) *Proxy {
	if config == nil {
		config = DefaultConfig()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Proxy{
		auth:        authenticator,
		limiter:     limiter,
		cache:       urlCache,
		upstream:    upstream,
		passthrough: config.PassthroughHeaders,
		now:         time.Now,
		metrics:     metrics,
		log:         logger.Named("proxy"),
	}
}

// Serve проводит запрос через все проверки и возвращает поток upstream.
// Тело ответа привязано к контексту запроса: отключение клиента обрывает загрузку.
func (p *Proxy) Serve(req *apigw.APIRequest) *apigw.APIResponse {
	if err := p.auth.Authenticate(req); err != nil {
		return p.fail(req, "unauthorized", err)
	}

	if !p.limiter.Admit(req.ClientID) {
		return p.fail(req, "rate_limited", ratelimit.ErrRateLimited)
	}

	if !resolver.IsURL(req.TargetURL) {
		return p.fail(req, "invalid_url", ErrInvalidURL)
	}

	key := req.TargetURL
	locator := key
	entry, cached := p.cache.Lookup(key)
	if cached {
		locator = entry.ResolvedLocator
		p.log.Debug("cache hit for %s, expires %s", key, entry.Expiry.Format(time.RFC3339))
	}

	resp, err := p.upstream.Fetch(req.Context, locator, nil)
	if err != nil {
		return p.fail(req, "upstream_failed",
			apigw.NewStatusError(http.StatusBadGateway, "upstream fetch failed", err))
	}

	// Для записи из кэша статус тоже проверяется: ошибку нельзя отдать как 200.
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return p.fail(req, "upstream_error", &UpstreamStatusError{Code: resp.StatusCode})
	}

	if !cached {
		p.metrics.ValidationsTotal.Inc()
		p.cache.Store(key, cache.Entry{
			Key:             key,
			ResolvedLocator: key,
			Expiry:          p.now().Add(p.cache.TTL()),
		})
	}

	headers := make(http.Header)
	for _, name := range p.passthrough {
		if v := resp.Header.Get(name); v != "" {
			headers.Set(name, v)
		}
	}

	outcome := "streamed"
	if cached {
		outcome = "streamed_cached"
	}
	p.metrics.ProxyOutcomesTotal.WithLabelValues(outcome).Inc()
	p.log.Debug("streaming %s to %s (upstream %d, %s)", key, req.ClientID, resp.StatusCode, headers.Get("Content-Type"))

	return &apigw.APIResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       resp.Body,
	}
}

func (p *Proxy) fail(req *apigw.APIRequest, outcome string, err error) *apigw.APIResponse {
	p.metrics.ProxyOutcomesTotal.WithLabelValues(outcome).Inc()
	statusErr := toStatusError(err)
	status, _ := apigw.StatusOf(statusErr)
	if status >= http.StatusInternalServerError {
		p.log.Warn("request %s for %s failed: %v", req.RequestID, req.TargetURL, errorChain(statusErr))
	} else {
		p.log.Debug("request %s rejected (%s): %v", req.RequestID, outcome, err)
	}
	return apigw.ErrorResponse(statusErr)
}

// errorChain печатает сообщение вместе с причиной, скрытой от клиента
func errorChain(err error) string {
	if se, ok := err.(*apigw.StatusError); ok && se.Err != nil && se.Err.Error() != se.Message {
		return fmt.Sprintf("%s: %v", se.Message, se.Err)
	}
	return err.Error()
}

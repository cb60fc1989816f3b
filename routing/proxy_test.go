package routing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audioproxy/apigw"
	"audioproxy/auth"
	"audioproxy/cache"
	"audioproxy/fetch"
	"audioproxy/ratelimit"
)

// fakeUpstream отдает заранее заданные ответы и считает вызовы
type fakeUpstream struct {
	mu       sync.Mutex
	status   int
	header   http.Header
	body     string
	err      error
	calls    []string
	contexts []context.Context
	lastBody *closeTracker
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		status: http.StatusOK,
		header: http.Header{"Content-Type": {"audio/mpeg"}, "Server": {"upstream"}},
		body:   "ID3-audio-bytes",
	}
}

func (u *fakeUpstream) Fetch(ctx context.Context, url string, header http.Header) (*fetch.Response, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, url)
	u.contexts = append(u.contexts, ctx)
	if u.err != nil {
		return nil, u.err
	}
	u.lastBody = &closeTracker{Reader: strings.NewReader(u.body)}
	return &fetch.Response{StatusCode: u.status, Header: u.header.Clone(), Body: u.lastBody}, nil
}

func (u *fakeUpstream) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.calls)
}

type proxyFixture struct {
	proxy    *Proxy
	upstream *fakeUpstream
	cache    *cache.MemoryCache
	metrics  *Metrics
}

func newProxyFixture(secret string, cacheTTL time.Duration) *proxyFixture {
	upstream := newFakeUpstream()
	urlCache := cache.New(&cache.Config{TTL: cacheTTL}, nil)
	metrics := NewMetrics(nil)
	proxy := NewProxy(
		auth.NewStaticAuthenticator(auth.DefaultHeader, secret, nil),
		ratelimit.New(ratelimit.DefaultConfig(), nil),
		urlCache,
		upstream,
		nil,
		metrics,
	)
	return &proxyFixture{proxy: proxy, upstream: upstream, cache: urlCache, metrics: metrics}
}

func proxyRequest(target, clientID string, headers http.Header) *apigw.APIRequest {
	if headers == nil {
		headers = make(http.Header)
	}
	return &apigw.APIRequest{
		Operation: apigw.ProxyStream,
		RequestID: "req-1",
		TargetURL: target,
		ClientID:  clientID,
		Headers:   headers,
		Context:   context.Background(),
	}
}

func requireError(t *testing.T, resp *apigw.APIResponse, wantStatus int, wantMessage string) {
	t.Helper()
	require.Error(t, resp.Error)
	status, message := apigw.StatusOf(resp.Error)
	assert.Equal(t, wantStatus, status)
	assert.Equal(t, wantMessage, message)
	assert.Equal(t, wantStatus, resp.StatusCode)
}

func readBody(t *testing.T, resp *apigw.APIResponse) string {
	t.Helper()
	require.NotNil(t, resp.Body)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestProxy_StreamsUpstream(t *testing.T) {
	f := newProxyFixture("", 45*time.Second)

	resp := f.proxy.Serve(proxyRequest("https://cdn.example.com/a.mp3", "10.0.0.1", nil))

	require.NoError(t, resp.Error)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/mpeg", resp.Headers.Get("Content-Type"))
	assert.Empty(t, resp.Headers.Get("Server"))
	assert.Equal(t, "ID3-audio-bytes", readBody(t, resp))

	entry, ok := f.cache.Lookup("https://cdn.example.com/a.mp3")
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/a.mp3", entry.Key)
	assert.Equal(t, entry.Key, entry.ResolvedLocator)
	assert.WithinDuration(t, time.Now().Add(45*time.Second), entry.Expiry, 2*time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ValidationsTotal))
}

func TestProxy_NoContentTypeFromUpstream(t *testing.T) {
	f := newProxyFixture("", 45*time.Second)
	f.upstream.header = http.Header{}

	resp := f.proxy.Serve(proxyRequest("https://cdn.example.com/raw", "c", nil))

	require.NoError(t, resp.Error)
	assert.Empty(t, resp.Headers.Get("Content-Type"))
	readBody(t, resp)
}

func TestProxy_CacheHitSkipsValidation(t *testing.T) {
	f := newProxyFixture("", 45*time.Second)
	target := "https://cdn.example.com/a.mp3"

	first := f.proxy.Serve(proxyRequest(target, "c", nil))
	readBody(t, first)
	second := f.proxy.Serve(proxyRequest(target, "c", nil))

	require.NoError(t, second.Error)
	assert.Equal(t, "ID3-audio-bytes", readBody(t, second))
	assert.Equal(t, "audio/mpeg", second.Headers.Get("Content-Type"))

	// байты не кэшируются: upstream читается оба раза, но проверяется один раз
	assert.Equal(t, 2, f.upstream.callCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ValidationsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ProxyOutcomesTotal.WithLabelValues("streamed_cached")))
}

func TestProxy_ExpiredEntryIsRevalidated(t *testing.T) {
	f := newProxyFixture("", 20*time.Millisecond)
	target := "https://cdn.example.com/a.mp3"

	readBody(t, f.proxy.Serve(proxyRequest(target, "c", nil)))
	time.Sleep(50 * time.Millisecond)
	readBody(t, f.proxy.Serve(proxyRequest(target, "c", nil)))

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.ValidationsTotal))
}

func TestProxy_CacheHitStillRefusesUpstreamError(t *testing.T) {
	f := newProxyFixture("", 45*time.Second)
	target := "https://cdn.example.com/a.mp3"
	readBody(t, f.proxy.Serve(proxyRequest(target, "c", nil)))

	f.upstream.status = http.StatusForbidden
	resp := f.proxy.Serve(proxyRequest(target, "c", nil))

	requireError(t, resp, http.StatusBadGateway, "upstream returned 403")
	assert.True(t, f.upstream.lastBody.closed)
}

func TestProxy_UpstreamErrorStatus(t *testing.T) {
	f := newProxyFixture("", 45*time.Second)
	f.upstream.status = http.StatusNotFound

	resp := f.proxy.Serve(proxyRequest("https://cdn.example.com/missing", "c", nil))

	requireError(t, resp, http.StatusBadGateway, "upstream returned 404")
	var upstreamErr *UpstreamStatusError
	require.ErrorAs(t, resp.Error, &upstreamErr)
	assert.Equal(t, 404, upstreamErr.Code)
	assert.True(t, f.upstream.lastBody.closed)

	_, ok := f.cache.Lookup("https://cdn.example.com/missing")
	assert.False(t, ok, "failed fetch must not be cached")
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.ValidationsTotal))
}

func TestProxy_SuccessStatusIsNormalized(t *testing.T) {
	f := newProxyFixture("", 45*time.Second)
	f.upstream.status = http.StatusPartialContent

	resp := f.proxy.Serve(proxyRequest("https://cdn.example.com/a", "c", nil))

	require.NoError(t, resp.Error)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	readBody(t, resp)
}

func TestProxy_UpstreamNetworkError(t *testing.T) {
	f := newProxyFixture("", 45*time.Second)
	f.upstream.err = errors.New("dial tcp: connection refused")

	resp := f.proxy.Serve(proxyRequest("https://cdn.example.com/a", "c", nil))

	requireError(t, resp, http.StatusBadGateway, "upstream fetch failed")
	assert.Equal(t, 0, f.cache.Len())
}

func TestProxy_InvalidURL(t *testing.T) {
	f := newProxyFixture("", 45*time.Second)

	for _, target := range []string{"ftp://x", "example.com/a.mp3", "javascript:alert(1)"} {
		resp := f.proxy.Serve(proxyRequest(target, "c", nil))
		requireError(t, resp, http.StatusBadRequest, "invalid url")
	}
	assert.Equal(t, 0, f.upstream.callCount())
}

func TestProxy_InvalidURLCountsAgainstLimit(t *testing.T) {
	f := newProxyFixture("", 45*time.Second)

	for i := 0; i < 10; i++ {
		f.proxy.Serve(proxyRequest("ftp://x", "c", nil))
	}
	resp := f.proxy.Serve(proxyRequest("https://cdn.example.com/a", "c", nil))

	requireError(t, resp, http.StatusTooManyRequests, "rate limit exceeded")
}

func TestProxy_RateLimit(t *testing.T) {
	f := newProxyFixture("", 45*time.Second)

	for i := 1; i <= 10; i++ {
		resp := f.proxy.Serve(proxyRequest("https://cdn.example.com/a.mp3", "10.0.0.1", nil))
		require.NoError(t, resp.Error, "request %d", i)
		readBody(t, resp)
	}

	resp := f.proxy.Serve(proxyRequest("https://cdn.example.com/a.mp3", "10.0.0.1", nil))
	requireError(t, resp, http.StatusTooManyRequests, "rate limit exceeded")
	assert.Equal(t, 10, f.upstream.callCount())

	other := f.proxy.Serve(proxyRequest("https://cdn.example.com/a.mp3", "10.0.0.2", nil))
	require.NoError(t, other.Error)
	readBody(t, other)
}

func TestProxy_APIKey(t *testing.T) {
	f := newProxyFixture("s3cret", 45*time.Second)
	target := "https://cdn.example.com/a.mp3"

	resp := f.proxy.Serve(proxyRequest(target, "c", nil))
	requireError(t, resp, http.StatusUnauthorized, "missing or invalid API key")

	resp = f.proxy.Serve(proxyRequest(target, "c", http.Header{"X-Api-Key": {"wrong"}}))
	requireError(t, resp, http.StatusUnauthorized, "missing or invalid API key")

	resp = f.proxy.Serve(proxyRequest(target, "c", http.Header{"X-Api-Key": {"s3cret"}}))
	require.NoError(t, resp.Error)
	readBody(t, resp)

	assert.Equal(t, 1, f.upstream.callCount())
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.ProxyOutcomesTotal.WithLabelValues("unauthorized")))
}

func TestProxy_UnauthorizedDoesNotConsumeQuota(t *testing.T) {
	f := newProxyFixture("s3cret", 45*time.Second)

	for i := 0; i < 15; i++ {
		f.proxy.Serve(proxyRequest("https://cdn.example.com/a", "c", nil))
	}
	resp := f.proxy.Serve(proxyRequest("https://cdn.example.com/a", "c", http.Header{"X-Api-Key": {"s3cret"}}))

	require.NoError(t, resp.Error)
	readBody(t, resp)
}

func TestProxy_PassesRequestContext(t *testing.T) {
	f := newProxyFixture("", 45*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := proxyRequest("https://cdn.example.com/a", "c", nil)
	req.Context = ctx
	readBody(t, f.proxy.Serve(req))

	require.Len(t, f.upstream.contexts, 1)
	assert.Equal(t, ctx, f.upstream.contexts[0])
}

func TestProxy_ConfiguredPassthroughHeaders(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.header.Set("Content-Length", "15")
	proxy := NewProxy(
		auth.NewStaticAuthenticator("", "", nil),
		ratelimit.New(nil, nil),
		cache.New(nil, nil),
		upstream,
		&Config{PassthroughHeaders: []string{"Content-Type", "content-length"}},
		nil,
	)

	resp := proxy.Serve(proxyRequest("https://cdn.example.com/a", "c", nil))

	require.NoError(t, resp.Error)
	assert.Equal(t, "15", resp.Headers.Get("Content-Length"))
	readBody(t, resp)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, (&Config{PassthroughHeaders: []string{""}}).Validate())
	assert.Error(t, (&Config{PassthroughHeaders: []string{"transfer-encoding"}}).Validate())
}

package extract

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/raitonoberu/ytsearch"
	"golang.org/x/sync/semaphore"

	"audioproxy/logger"
	"audioproxy/resolver"
)

// videoSearchFunc ищет видео по тексту и возвращает их id, лучшие первыми
type videoSearchFunc func(query string) ([]string, error)

// Provider реализует resolver.Provider: поиск через ytsearch или yt-dlp,
// перечисление потоков через yt-dlp -J.
type Provider struct {
	cfg     *Config
	runner  Runner
	search  videoSearchFunc
	slots   *semaphore.Weighted
	metrics *Metrics
	log     *logger.Logger
}

var _ resolver.Provider = (*Provider)(nil)

// New создает провайдера с запуском yt-dlp через os/exec
func New(cfg *Config, metrics *Metrics) *Provider {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return newProvider(cfg, &execRunner{binary: cfg.Binary}, ytsearchVideos, metrics)
}

func newProvider(cfg *Config, runner Runner, search videoSearchFunc, metrics *Metrics) *Provider {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Provider{
		cfg:     cfg,
		runner:  runner,
		search:  search,
		slots:   semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		metrics: metrics,
		log:     logger.Named("extract"),
	}
}

// Check проверяет, что бинарник yt-dlp доступен
func (p *Provider) Check() error {
	if _, err := exec.LookPath(p.cfg.Binary); err != nil {
		return fmt.Errorf("extractor binary unavailable: %w", err)
	}
	return nil
}

func ytsearchVideos(query string) ([]string, error) {
	results, err := ytsearch.VideoSearch(query).Next()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(results.Videos))
	for _, video := range results.Videos {
		if video.ID != "" {
			ids = append(ids, video.ID)
		}
	}
	return ids, nil
}

// Search возвращает URL найденных элементов, не больше SearchLimit
func (p *Provider) Search(ctx context.Context, query string) ([]string, error) {
	start := time.Now()
	urls, err := p.searchURLs(ctx, query)
	p.observe("search", start, err)
	if err != nil {
		return nil, err
	}
	if len(urls) > p.cfg.SearchLimit {
		urls = urls[:p.cfg.SearchLimit]
	}
	return urls, nil
}

func (p *Provider) searchURLs(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	if p.cfg.SearchBackend == SearchBackendYtDlp {
		out, err := p.run(ctx, "--flat-playlist", "-j", "--no-warnings", "--",
			fmt.Sprintf("ytsearch%d:%s", p.cfg.SearchLimit, query))
		if err != nil {
			return nil, err
		}
		return parseSearchLines(out, p.cfg.WatchURLPrefix), nil
	}

	// ytsearch не принимает context: ждем результат или отмену
	type result struct {
		ids []string
		err error
	}
	done := make(chan result, 1)
	go func() {
		ids, err := p.search(query)
		done <- result{ids, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("search failed: %w", res.err)
		}
		urls := make([]string, 0, len(res.ids))
		for _, id := range res.ids {
			urls = append(urls, p.cfg.WatchURLPrefix+id)
		}
		return urls, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("search failed: %w", ctx.Err())
	}
}

// Streams перечисляет аудиопотоки элемента
func (p *Provider) Streams(ctx context.Context, itemURL string) ([]resolver.Candidate, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	out, err := p.run(ctx, "-J", "--no-playlist", "--skip-download", "--no-warnings", "--", itemURL)
	if err != nil {
		p.observe("streams", start, err)
		return nil, err
	}
	candidates, err := parseStreams(out)
	p.observe("streams", start, err)
	if err != nil {
		return nil, err
	}
	p.log.Debug("%d audio streams for %s", len(candidates), itemURL)
	return candidates, nil
}

// run занимает слот и запускает yt-dlp; ExtraArgs идут перед аргументами вызова
func (p *Provider) run(ctx context.Context, args ...string) ([]byte, error) {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		p.metrics.QueueTimeout.Inc()
		return nil, fmt.Errorf("no free extractor slot: %w", err)
	}
	defer p.slots.Release(1)

	p.metrics.InFlight.Inc()
	defer p.metrics.InFlight.Dec()

	full := make([]string, 0, len(p.cfg.ExtraArgs)+len(args))
	full = append(full, p.cfg.ExtraArgs...)
	full = append(full, args...)
	return p.runner.Run(ctx, full...)
}

func (p *Provider) observe(op string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
		p.log.Warn("%s failed: %v", op, err)
	}
	p.metrics.CallsTotal.WithLabelValues(op, result).Inc()
	p.metrics.CallLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

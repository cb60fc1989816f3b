package resolver

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"audioproxy/logger"
)

// Resolver превращает запрос (URL или свободный текст) в один выбранный аудиопоток.
type Resolver struct {
	provider  Provider
	searchAPI SearchAPI
	watchURL  string
	prefs     *PreferenceList
	group     singleflight.Group
	metrics   *Metrics
	log       *logger.Logger
}

// New создает Resolver. searchAPI может быть nil, тогда поиск всегда идет через провайдера.
func New(cfg *Config, provider Provider, searchAPI SearchAPI, metrics *Metrics) *Resolver {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	r := &Resolver{
		provider:  provider,
		searchAPI: searchAPI,
		watchURL:  cfg.SearchAPI.WatchURLPrefix,
		prefs:     NewPreferenceList(cfg.PreferredMimes...),
		metrics:   metrics,
		log:       logger.Named("resolver"),
	}
	r.log.Debug("preferred MIME types: %v", r.prefs.Mimes())
	return r
}

// Resolve выполняет поиск и выбор потока. Одновременные запросы с одинаковой
// строкой разделяют одно разрешение; отмена ctx отпускает только этого вызывающего.
func (r *Resolver) Resolve(ctx context.Context, query string) (Candidate, error) {
	ch := r.group.DoChan(query, func() (interface{}, error) {
		return r.resolve(context.WithoutCancel(ctx), query)
	})

	select {
	case res := <-ch:
		if res.Shared {
			r.metrics.SharedTotal.Inc()
		}
		if res.Err != nil {
			return Candidate{}, res.Err
		}
		return res.Val.(Candidate), nil
	case <-ctx.Done():
		return Candidate{}, ctx.Err()
	}
}

func (r *Resolver) resolve(ctx context.Context, query string) (Candidate, error) {
	start := time.Now()
	defer func() {
		r.metrics.ResolveLatency.Observe(time.Since(start).Seconds())
	}()

	chosen, err := r.resolveOnce(ctx, query)
	r.metrics.ResolutionsTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		r.log.Debug("resolution of %q failed: %v", query, err)
		return Candidate{}, err
	}
	r.log.Debug("resolved %q to %s (%s)", query, chosen.Locator, chosen.MimeType)
	return chosen, nil
}

func (r *Resolver) resolveOnce(ctx context.Context, query string) (Candidate, error) {
	itemURL, err := r.itemURL(ctx, query)
	if err != nil {
		return Candidate{}, err
	}

	candidates, err := r.provider.Streams(ctx, itemURL)
	if err != nil {
		return Candidate{}, &ResolutionError{Op: "streams", Err: err}
	}

	chosen, ok := SelectStream(candidates, r.prefs)
	if !ok {
		return Candidate{}, ErrNoAudioStreams
	}
	return chosen, nil
}

// itemURL определяет URL элемента: сам запрос, результат API поиска или первый результат провайдера
func (r *Resolver) itemURL(ctx context.Context, query string) (string, error) {
	if IsURL(query) {
		r.metrics.ItemSourceTotal.WithLabelValues("url").Inc()
		return query, nil
	}

	if r.searchAPI != nil {
		if id, ok := r.searchAPI.TopResult(ctx, query); ok {
			r.metrics.ItemSourceTotal.WithLabelValues("search_api").Inc()
			return r.watchURL + id, nil
		}
	}

	results, err := r.provider.Search(ctx, query)
	if err != nil {
		return "", &ResolutionError{Op: "search", Err: err}
	}
	if len(results) == 0 {
		return "", ErrNoSearchResults
	}
	r.metrics.ItemSourceTotal.WithLabelValues("provider").Inc()
	return results[0], nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoSearchResults):
		return "no_search_results"
	case errors.Is(err, ErrNoAudioStreams):
		return "no_audio_streams"
	default:
		return "failed"
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"audioproxy/apigw"
	"audioproxy/auth"
	"audioproxy/cache"
	"audioproxy/fetch"
	"audioproxy/logger"
	"audioproxy/ratelimit"
	"audioproxy/resolver"
	"audioproxy/routing"
)

// application - собранные модули сервиса
type application struct {
	gateway *apigw.Gateway
	limiter *ratelimit.Limiter
	cache   *cache.MemoryCache
}

// newApplication собирает цепочку gateway -> engine -> (resolver | proxy).
// Метрики всех модулей регистрируются в reg.
func newApplication(config *AppConfig, provider resolver.Provider, reg prometheus.Registerer) (*application, error) {
	authenticator, err := auth.NewAuthenticatorFromConfig(&config.Auth, auth.NewMetrics(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}
	if authenticator.Enabled() {
		logger.Info("Proxy API key check enabled (header %s)", config.Auth.Header)
	} else {
		logger.Warn("PROXY_API_KEY is not set: /api/proxy is open to everyone")
	}

	limiter := ratelimit.New(&config.RateLimit, ratelimit.NewMetrics(reg))
	urlCache := cache.New(&config.Cache, cache.NewMetrics(reg))
	upstream := fetch.NewFetcher(&config.Upstream, fetch.NewMetrics(reg))

	resolverMetrics := resolver.NewMetrics(reg)
	var searchAPI resolver.SearchAPI
	if config.Resolver.SearchAPI.Key != "" {
		// метрики клиента API поиска не регистрируются: их считает resolver
		api, err := resolver.NewDataAPI(config.Resolver.SearchAPI,
			fetch.NewFetcher(config.searchAPIUpstreamConfig(), nil), resolverMetrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create search API client: %w", err)
		}
		searchAPI = api
		logger.Info("Search API shortcut enabled")
	} else {
		logger.Info("YT_API_KEY is not set: free-text queries use the extractor search")
	}
	streamResolver := resolver.New(&config.Resolver, provider, searchAPI, resolverMetrics)

	routingMetrics := routing.NewMetrics(reg)
	proxy := routing.NewProxy(authenticator, limiter, urlCache, upstream, &config.Proxy, routingMetrics)
	engine := routing.NewEngine(streamResolver, proxy, routingMetrics)

	return &application{
		gateway: apigw.New(config.ToAPIGatewayConfig(), engine, reg),
		limiter: limiter,
		cache:   urlCache,
	}, nil
}

// start запускает фоновые задачи и блокирует до остановки gateway
func (a *application) start() error {
	a.limiter.Start()
	a.cache.Start()
	if err := a.gateway.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// stop останавливает gateway, дожидаясь текущих запросов, и фоновые задачи
func (a *application) stop(ctx context.Context) error {
	err := a.gateway.Stop(ctx)
	a.limiter.Stop()
	a.cache.Stop()
	return err
}

package routing

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"audioproxy/apigw"
	"audioproxy/logger"
)

const healthBody = "ok"

// Engine - реализация apigw.RequestHandler: направляет операцию в нужный модуль
type Engine struct {
	resolver StreamResolver
	proxy    *Proxy
	metrics  *Metrics
}

// NewEngine создает новый экземпляр Engine
func NewEngine(streamResolver StreamResolver, proxy *Proxy, metrics *Metrics) *Engine {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Engine{
		resolver: streamResolver,
		proxy:    proxy,
		metrics:  metrics,
	}
}

// Handle - точка входа в модуль
func (e *Engine) Handle(req *apigw.APIRequest) *apigw.APIResponse {
	logger.Debug("Routing request %s: operation %s", req.RequestID, req.Operation)

	switch req.Operation {
	case apigw.Health:
		return healthResponse()

	case apigw.ResolveStream:
		return e.resolveStream(req)

	case apigw.ProxyStream:
		return e.proxy.Serve(req)

	default:
		logger.Warn("Unsupported operation: %s", req.Operation)
		return apigw.ErrorResponse(apigw.ErrNotFound)
	}
}

func (e *Engine) resolveStream(req *apigw.APIRequest) *apigw.APIResponse {
	chosen, err := e.resolver.Resolve(req.Context, req.Query)
	if err != nil {
		statusErr := toStatusError(err)
		status, _ := apigw.StatusOf(statusErr)
		e.metrics.StreamResultsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
		if status >= http.StatusInternalServerError {
			logger.Error("Resolution of %q failed: %v", req.Query, err)
		} else {
			logger.Info("Resolution of %q: %v", req.Query, err)
		}
		return apigw.ErrorResponse(statusErr)
	}

	e.metrics.StreamResultsTotal.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()
	return apigw.JSONResponse(http.StatusOK, StreamResponse{
		AudioURL: chosen.Locator,
		Mime:     chosen.MimeType,
	})
}

func healthResponse() *apigw.APIResponse {
	headers := make(http.Header)
	headers.Set("Content-Type", "text/plain; charset=utf-8")
	headers.Set("Content-Length", strconv.Itoa(len(healthBody)))
	return &apigw.APIResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       io.NopCloser(strings.NewReader(healthBody)),
	}
}

package apigw

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"audioproxy/logger"
)

// Gateway представляет модуль API Gateway
type Gateway struct {
	config         Config
	handler        RequestHandler
	parser         *RequestParser
	responseWriter *ResponseWriter
	server         *http.Server
	metrics        *Metrics
}

// New создает новый экземпляр API Gateway. Метрики регистрируются в reg.
func New(config Config, handler RequestHandler, reg prometheus.Registerer) *Gateway {
	gw := &Gateway{
		config:         config,
		handler:        handler,
		parser:         NewRequestParser(config.TrustForwardedFor),
		responseWriter: NewResponseWriter(),
		metrics:        NewMetrics(reg),
	}
	gw.server = &http.Server{
		Addr:         config.ListenAddress,
		Handler:      gw,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return gw
}

// ServeHTTP реализует интерфейс http.Handler
func (gw *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)

	logger.Info("Incoming request %s: %s %s from %s", requestID, r.Method, r.URL.Path, r.RemoteAddr)

	req, err := gw.parser.Parse(r)
	if err != nil {
		logger.Debug("Failed to parse request %s: %v", requestID, err)
		status, _ := StatusOf(err)
		if writeErr := gw.responseWriter.WriteError(w, err); writeErr != nil {
			logger.Error("Failed to write response: %v", writeErr)
		}
		gw.observe(UnsupportedOperation, status, start)
		return
	}
	req.RequestID = requestID

	resp := gw.handler.Handle(req)

	written, err := gw.responseWriter.WriteResponse(w, resp)
	if err != nil {
		// Клиент мог отключиться посреди потока: уже отправленное не откатывается.
		logger.Warn("Response %s for %s interrupted after %d bytes: %v", requestID, req.Operation, written, err)
	}

	status := resp.StatusCode
	if resp.Error != nil {
		status, _ = StatusOf(resp.Error)
	}
	logger.Info("Response sent %s: %d, %d bytes, %.3f ms",
		requestID, status, written, float64(time.Since(start).Microseconds())/1000.0)

	gw.observe(req.Operation, status, start)
}

func (gw *Gateway) observe(op Operation, status int, start time.Time) {
	gw.metrics.RequestsTotal.WithLabelValues(op.String(), strconv.Itoa(status)).Inc()
	gw.metrics.RequestLatency.WithLabelValues(op.String()).Observe(time.Since(start).Seconds())
}

// Start запускает сервер. Блокирует до остановки; после Stop
// возвращает http.ErrServerClosed.
func (gw *Gateway) Start() error {
	logger.Info("Starting API Gateway on %s", gw.config.ListenAddress)

	if gw.config.TLSCertFile != "" && gw.config.TLSKeyFile != "" {
		logger.Info("Starting HTTPS server with TLS")
		return gw.server.ListenAndServeTLS(gw.config.TLSCertFile, gw.config.TLSKeyFile)
	}

	logger.Info("Starting HTTP server")
	return gw.server.ListenAndServe()
}

// Stop останавливает сервер
func (gw *Gateway) Stop(ctx context.Context) error {
	logger.Info("Stopping API Gateway...")
	return gw.server.Shutdown(ctx)
}

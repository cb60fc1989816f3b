package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"audioproxy/logger"
)

// ReadinessCheck возвращает ошибку, если зависимость сервиса недоступна
type ReadinessCheck func() error

// Server представляет HTTP сервер для экспорта метрик Prometheus
type Server struct {
	config       *Config
	gatherer     prometheus.Gatherer
	server       *http.Server
	listener     net.Listener
	shuttingDown atomic.Bool

	mu     sync.RWMutex
	checks map[string]ReadinessCheck
}

// NewServer создает новый сервер метрик. gatherer - реестр, в котором
// модули зарегистрировали свои метрики.
func NewServer(config *Config, gatherer prometheus.Gatherer) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &Server{
		config:   config,
		gatherer: gatherer,
		checks:   make(map[string]ReadinessCheck),
	}
}

// AddReadinessCheck добавляет проверку для /health/ready
func (s *Server) AddReadinessCheck(name string, check ReadinessCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// SetShuttingDown переводит /health/ready в 503 до остановки основного сервера
func (s *Server) SetShuttingDown() {
	s.shuttingDown.Store(true)
}

// Handler возвращает мультиплексор с метриками и health check эндпоинтами
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health/live", s.liveHealthHandler)
	mux.HandleFunc("/health/ready", s.readyHealthHandler)
	return mux
}

// Start открывает порт и обслуживает запросы в отдельной горутине.
// Ошибка привязки к адресу возвращается сразу.
func (s *Server) Start() error {
	if !s.config.Enabled {
		logger.Info("Monitoring is disabled, skipping metrics server start")
		return nil
	}

	listener, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	go func() {
		logger.Info("Metrics server listening on %s%s", listener.Addr(), s.config.MetricsPath)
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed: %v", err)
		}
	}()

	return nil
}

// Addr возвращает фактический адрес сервера после Start
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop останавливает HTTP сервер метрик
func (s *Server) Stop(ctx context.Context) error {
	if !s.config.Enabled || s.server == nil {
		return nil
	}

	logger.Info("Stopping metrics server...")
	return s.server.Shutdown(ctx)
}

// liveHealthHandler обрабатывает запросы /health/live
func (s *Server) liveHealthHandler(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

// readyHealthHandler обрабатывает запросы /health/ready
func (s *Server) readyHealthHandler(w http.ResponseWriter, r *http.Request) {
	// Проверяем, не находимся ли мы в состоянии graceful shutdown
	if s.shuttingDown.Load() {
		writeStatus(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "shutting down"})
		return
	}

	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)

	failed := make(map[string]string)
	for _, name := range names {
		s.mu.RLock()
		check := s.checks[name]
		s.mu.RUnlock()
		if err := check(); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		writeStatus(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "not ready", "failed": failed})
		return
	}
	writeStatus(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func writeStatus(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Debug("Failed to write health response: %v", err)
	}
}

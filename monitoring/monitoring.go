package monitoring

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"audioproxy/logger"
)

// Monitor представляет основной интерфейс модуля мониторинга.
// Владеет реестром метрик, который передается во все модули.
type Monitor struct {
	config   *Config
	registry *prometheus.Registry
	server   *Server
}

// New создает новый экземпляр Monitor с собственным реестром
func New(config *Config) (*Monitor, error) {
	if config == nil {
		config = DefaultConfig()
	}

	// Валидируем конфигурацию
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid monitoring config: %w", err)
	}

	registry := prometheus.NewRegistry()
	if config.EnableSystemMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	monitor := &Monitor{
		config:   config,
		registry: registry,
		server:   NewServer(config, registry),
	}

	logger.Info("Monitoring module initialized")
	logger.Debug("Monitoring config: enabled=%v, listen=%s, path=%s",
		config.Enabled, config.ListenAddress, config.MetricsPath)

	return monitor, nil
}

// Registry возвращает реестр, в котором модули регистрируют метрики
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

// AddReadinessCheck добавляет проверку готовности сервиса
func (m *Monitor) AddReadinessCheck(name string, check ReadinessCheck) {
	m.server.AddReadinessCheck(name, check)
}

// Start запускает модуль мониторинга
func (m *Monitor) Start() error {
	if !m.config.Enabled {
		logger.Info("Monitoring is disabled")
		return nil
	}

	logger.Info("Starting monitoring module...")

	// Запускаем HTTP сервер метрик
	if err := m.server.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	logger.Info("Monitoring module started successfully")
	return nil
}

// Stop останавливает модуль мониторинга
func (m *Monitor) Stop(ctx context.Context) error {
	if !m.config.Enabled {
		return nil
	}

	logger.Info("Stopping monitoring module...")
	m.server.SetShuttingDown()

	// Останавливаем HTTP сервер
	if err := m.server.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop metrics server: %w", err)
	}

	logger.Info("Monitoring module stopped")
	return nil
}

// SetShuttingDown сообщает пробам готовности о начале остановки
func (m *Monitor) SetShuttingDown() {
	m.server.SetShuttingDown()
}

// GetConfig возвращает конфигурацию мониторинга
func (m *Monitor) GetConfig() *Config {
	return m.config
}

// IsEnabled возвращает true, если мониторинг включен
func (m *Monitor) IsEnabled() bool {
	return m.config.Enabled
}

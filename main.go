package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"audioproxy/extract"
	"audioproxy/logger"
	"audioproxy/monitoring"
)

func main() {
	// Парсим аргументы командной строки
	var (
		configFile     = flag.String("config", "", "Configuration file path (YAML, optional)")
		listenAddr     = flag.String("listen", "", "Listen address (overrides config and PORT)")
		tlsCert        = flag.String("tls-cert", "", "TLS certificate file (overrides config)")
		tlsKey         = flag.String("tls-key", "", "TLS key file (overrides config)")
		readTimeout    = flag.Duration("read-timeout", 0, "Read timeout (overrides config)")
		writeTimeout   = flag.Duration("write-timeout", 0, "Write timeout (overrides config)")
		logLevel       = flag.String("log-level", "", "Log level (debug, info, warn, error) (overrides config)")
		metricsAddr    = flag.String("metrics-listen", "", "Metrics server listen address (overrides config)")
		disableMetrics = flag.Bool("disable-metrics", false, "Disable metrics server (overrides config)")
		ytdlpBinary    = flag.String("yt-dlp", "", "Path to the yt-dlp binary (overrides config)")
		writeConfig    = flag.String("write-config", "", "Write the effective configuration to this file and exit")
	)
	flag.Parse()

	// Загружаем конфигурацию
	config := DefaultAppConfig()
	if *configFile != "" {
		logger.Info("Loading configuration from file: %s", *configFile)
		loaded, err := LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		config = loaded
		logger.Info("Configuration loaded successfully")
	}

	applyEnvOverrides(config, os.Getenv)

	// Применяем переопределения из командной строки
	applyCommandLineOverrides(config,
		*listenAddr, *tlsCert, *tlsKey, *readTimeout, *writeTimeout,
		*logLevel, *metricsAddr, *disableMetrics, *ytdlpBinary)

	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *writeConfig != "" {
		if err := config.SaveConfig(*writeConfig); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		logger.Info("Configuration written to %s", *writeConfig)
		return
	}

	// Устанавливаем уровень логирования
	level := logger.ParseLogLevel(config.Logging.Level)
	logger.SetGlobalLevel(level)

	logger.Info("Audio proxy starting...")
	logger.Info("Log level: %s", level.String())

	// Модуль мониторинга владеет реестром метрик, поэтому создается первым
	monitor, err := monitoring.New(&config.Monitoring)
	if err != nil {
		log.Fatalf("Failed to create monitoring module: %v", err)
	}

	provider := extract.New(&config.Extract, extract.NewMetrics(monitor.Registry()))
	if err := provider.Check(); err != nil {
		logger.Warn("%v: /api/stream will fail until it is installed", err)
	}
	monitor.AddReadinessCheck("extractor", provider.Check)

	app, err := newApplication(config, provider, monitor.Registry())
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	if err := monitor.Start(); err != nil {
		log.Fatalf("Failed to start monitoring module: %v", err)
	}
	if monitor.IsEnabled() {
		logger.Info("Metrics available at %s%s", config.Monitoring.ListenAddress, config.Monitoring.MetricsPath)
	} else {
		logger.Info("Monitoring disabled")
	}

	logger.Info("Configuration:")
	logger.Info("  Listen Address: %s", config.Server.ListenAddress)
	logger.Info("  Read Timeout: %v", config.Server.ReadTimeout)
	logger.Info("  Write Timeout: %v", config.Server.WriteTimeout)
	logger.Info("  Rate Limit: %d per %v", config.RateLimit.Limit, config.RateLimit.Window)
	logger.Info("  Cache TTL: %v", config.Cache.TTL)
	if config.Server.TLSCertFile != "" {
		logger.Info("  TLS Enabled: Yes")
	} else {
		logger.Info("  TLS Enabled: No")
	}

	// Настраиваем graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Запускаем API Gateway в отдельной горутине
	go func() {
		if err := app.start(); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	logger.Info("Audio proxy started successfully")

	// Ждем сигнал для остановки
	sig := <-sigChan
	logger.Info("Received signal %v, shutting down...", sig)
	monitor.SetShuttingDown()

	// Создаем контекст с таймаутом для graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := app.stop(ctx); err != nil {
		logger.Error("Error stopping API Gateway: %v", err)
	}

	// Останавливаем мониторинг
	if err := monitor.Stop(ctx); err != nil {
		logger.Error("Error stopping monitoring: %v", err)
	}

	logger.Info("Audio proxy stopped")
}

// applyCommandLineOverrides применяет переопределения из командной строки
func applyCommandLineOverrides(config *AppConfig,
	listenAddr, tlsCert, tlsKey string,
	readTimeout, writeTimeout time.Duration,
	logLevel, metricsAddr string, disableMetrics bool, ytdlpBinary string) {

	// Переопределения сервера
	if listenAddr != "" {
		config.Server.ListenAddress = listenAddr
		logger.Debug("Override: server.listen_address = %s", listenAddr)
	}

	if tlsCert != "" {
		config.Server.TLSCertFile = tlsCert
		logger.Debug("Override: server.tls_cert_file = %s", tlsCert)
	}

	if tlsKey != "" {
		config.Server.TLSKeyFile = tlsKey
		logger.Debug("Override: server.tls_key_file = %s", tlsKey)
	}

	if readTimeout > 0 {
		config.Server.ReadTimeout = readTimeout
		logger.Debug("Override: server.read_timeout = %v", readTimeout)
	}

	if writeTimeout > 0 {
		config.Server.WriteTimeout = writeTimeout
		logger.Debug("Override: server.write_timeout = %v", writeTimeout)
	}

	// Переопределения логирования
	if logLevel != "" {
		config.Logging.Level = logLevel
		logger.Debug("Override: logging.level = %s", logLevel)
	}

	// Переопределения мониторинга
	if metricsAddr != "" {
		config.Monitoring.ListenAddress = metricsAddr
		logger.Debug("Override: monitoring.listen_address = %s", metricsAddr)
	}

	if disableMetrics {
		config.Monitoring.Enabled = false
		logger.Debug("Override: monitoring.enabled = false")
	}

	if ytdlpBinary != "" {
		config.Extract.Binary = ytdlpBinary
		logger.Debug("Override: extract.binary = %s", ytdlpBinary)
	}
}

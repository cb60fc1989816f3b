package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel представляет уровень логирования
type LogLevel int32

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel парсит строку в LogLevel. Неизвестные значения дают INFO.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// IsValidLevel сообщает, является ли строка одним из поддерживаемых уровней
func IsValidLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// Logger представляет логгер с уровнями.
// Уровень читается из горутин обработчиков, поэтому хранится атомарно
// и разделяется с логгерами компонентов, созданными через Named.
type Logger struct {
	level     *atomic.Int32
	component string
	logger    *log.Logger
}

// New создает новый логгер с указанным уровнем
func New(level LogLevel) *Logger {
	return newLogger(level, os.Stdout)
}

func newLogger(level LogLevel, out io.Writer) *Logger {
	l := &Logger{level: new(atomic.Int32), logger: log.New(out, "", log.LstdFlags)}
	l.level.Store(int32(level))
	return l
}

// Named возвращает логгер компонента: тот же вывод и уровень, но
// каждое сообщение получает префикс "component: ".
func (l *Logger) Named(component string) *Logger {
	return &Logger{level: l.level, component: component, logger: l.logger}
}

// Named возвращает логгер компонента на основе глобального логгера
func Named(component string) *Logger {
	return globalLogger.Named(component)
}

// SetLevel устанавливает уровень логирования
func (l *Logger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))
}

// GetLevel возвращает текущий уровень логирования
func (l *Logger) GetLevel() LogLevel {
	return LogLevel(l.level.Load())
}

// SetOutput перенаправляет вывод логгера
func (l *Logger) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

func (l *Logger) logf(level LogLevel, format string, args ...interface{}) {
	if level < l.GetLevel() {
		return
	}
	prefix := fmt.Sprintf("[%s] ", level.String())
	if l.component != "" {
		prefix += l.component + ": "
	}
	l.logger.Printf(prefix+format, args...)
}

// Debug выводит отладочное сообщение
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(DEBUG, format, args...)
}

// Info выводит информационное сообщение
func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(INFO, format, args...)
}

// Warn выводит предупреждение
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(WARN, format, args...)
}

// Error выводит сообщение об ошибке
func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(ERROR, format, args...)
}

// Глобальный логгер
var globalLogger = New(INFO)

// SetGlobalLevel устанавливает уровень для глобального логгера
func SetGlobalLevel(level LogLevel) {
	globalLogger.SetLevel(level)
}

// GetGlobalLevel возвращает уровень глобального логгера
func GetGlobalLevel() LogLevel {
	return globalLogger.GetLevel()
}

// SetGlobalOutput перенаправляет вывод глобального логгера
func SetGlobalOutput(w io.Writer) {
	globalLogger.SetOutput(w)
}

// Глобальные функции для удобства
func Debug(format string, args ...interface{}) {
	globalLogger.Debug(format, args...)
}

func Info(format string, args ...interface{}) {
	globalLogger.Info(format, args...)
}

func Warn(format string, args ...interface{}) {
	globalLogger.Warn(format, args...)
}

func Error(format string, args ...interface{}) {
	globalLogger.Error(format, args...)
}

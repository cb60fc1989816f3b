// Package ratelimit реализует точный ограничитель запросов со скользящим окном
// для каждого клиента.
package ratelimit

import (
	"errors"
	"sync"
	"time"

	"audioproxy/logger"
)

// ErrRateLimited возвращается, когда клиент исчерпал лимит окна
var ErrRateLimited = errors.New("rate limit exceeded")

// Limiter хранит для каждого клиента моменты допущенных запросов,
// от старых к новым. Вся последовательность purge+count+append
// выполняется под одним мьютексом.
type Limiter struct {
	limit   int
	window  time.Duration
	idle    time.Duration
	metrics *Metrics
	now     func() time.Time

	mu      sync.Mutex
	clients map[string][]time.Time

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New создает ограничитель. metrics может быть nil.
func New(cfg *Config, metrics *Metrics) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Limiter{
		limit:    cfg.Limit,
		window:   cfg.Window,
		idle:     cfg.IdleEviction,
		metrics:  metrics,
		now:      time.Now,
		clients:  make(map[string][]time.Time),
		stopChan: make(chan struct{}),
	}
}

// Admit решает, допускать ли очередной запрос клиента.
// Отклоненный запрос не записывается в окно.
func (l *Limiter) Admit(clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	stamps, known := l.clients[clientID]
	stamps = purge(stamps, cutoff)

	if len(stamps) >= l.limit {
		l.clients[clientID] = stamps
		l.metrics.DecisionsTotal.WithLabelValues("rejected").Inc()
		logger.Debug("Rate limit exceeded for %s: %d requests in %v", clientID, len(stamps), l.window)
		return false
	}

	l.clients[clientID] = append(stamps, now)
	if !known {
		l.metrics.TrackedClients.Set(float64(len(l.clients)))
	}
	l.metrics.DecisionsTotal.WithLabelValues("admitted").Inc()
	return true
}

// purge отбрасывает отметки старше cutoff. Отметка ровно на границе окна остается.
func purge(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && stamps[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return stamps
	}
	// Копируем хвост, чтобы не удерживать старый массив целиком
	return append(stamps[:0:0], stamps[i:]...)
}

// Clients возвращает количество клиентов, для которых хранится состояние
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Start запускает периодическое удаление неактивных клиентов,
// если оно включено в конфигурации
func (l *Limiter) Start() {
	if l.idle <= 0 {
		return
	}
	l.wg.Add(1)
	go l.runEviction()
}

// Stop останавливает фоновое удаление
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopChan) })
	l.wg.Wait()
}

func (l *Limiter) runEviction() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := l.EvictIdle(); n > 0 {
				logger.Debug("Evicted %d idle rate limiter clients", n)
			}
		case <-l.stopChan:
			return
		}
	}
}

// EvictIdle удаляет клиентов, чей последний допущенный запрос старше Window+IdleEviction
func (l *Limiter) EvictIdle() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-(l.window + l.idle))
	evicted := 0
	for id, stamps := range l.clients {
		if len(stamps) == 0 || stamps[len(stamps)-1].Before(cutoff) {
			delete(l.clients, id)
			evicted++
		}
	}
	l.metrics.TrackedClients.Set(float64(len(l.clients)))
	return evicted
}

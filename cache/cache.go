// Package cache хранит короткоживущие отметки "этот upstream URL успешно отдал данные".
// Байты ответа не кэшируются.
package cache

import (
	"sync"
	"time"

	"audioproxy/logger"
)

// Entry - запись кэша. Хранится по значению, поэтому читатель
// никогда не видит частично записанную запись.
type Entry struct {
	// Key - URL, который запросил клиент
	Key string

	// ResolvedLocator - откуда на самом деле брать байты (сейчас совпадает с Key)
	ResolvedLocator string

	// Expiry - момент, после которого запись недействительна
	Expiry time.Time
}

// Live сообщает, действительна ли запись на момент now
func (e Entry) Live(now time.Time) bool {
	return !now.After(e.Expiry)
}

// Cache - интерфейс кэша для прокси
type Cache interface {
	// Lookup возвращает действующую запись или false
	Lookup(key string) (Entry, bool)

	// Store записывает свежую запись, заменяя прежнюю для того же ключа
	Store(key string, entry Entry)

	// TTL возвращает время жизни новых записей
	TTL() time.Duration
}

// MemoryCache - кэш в памяти процесса с одним мьютексом
type MemoryCache struct {
	ttl     time.Duration
	sweep   time.Duration
	metrics *Metrics
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]Entry

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

var _ Cache = (*MemoryCache)(nil)

// New создает кэш. metrics может быть nil.
func New(cfg *Config, metrics *Metrics) *MemoryCache {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &MemoryCache{
		ttl:      cfg.TTL,
		sweep:    cfg.SweepInterval,
		metrics:  metrics,
		now:      time.Now,
		entries:  make(map[string]Entry),
		stopChan: make(chan struct{}),
	}
}

// TTL возвращает время жизни новых записей
func (c *MemoryCache) TTL() time.Duration {
	return c.ttl
}

// Lookup возвращает запись, если expiry >= now. Просроченные записи не удаляются.
func (c *MemoryCache) Lookup(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || !entry.Live(c.now()) {
		c.metrics.CacheMissesTotal.Inc()
		return Entry{}, false
	}

	c.metrics.CacheHitsTotal.Inc()
	return entry, true
}

// Store записывает запись под ключом key
func (c *MemoryCache) Store(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.Key = key
	c.entries[key] = entry
	c.metrics.CacheEntries.Set(float64(len(c.entries)))
}

// Len возвращает количество записей, включая просроченные
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep удаляет просроченные записи и возвращает их количество
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if !entry.Live(now) {
			delete(c.entries, key)
			removed++
		}
	}
	c.metrics.CacheEntries.Set(float64(len(c.entries)))
	return removed
}

// Start запускает периодическую очистку, если она включена
func (c *MemoryCache) Start() {
	if c.sweep <= 0 {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := c.Sweep(); n > 0 {
					logger.Debug("Swept %d expired cache entries", n)
				}
			case <-c.stopChan:
				return
			}
		}
	}()
}

// Stop останавливает периодическую очистку
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.wg.Wait()
}

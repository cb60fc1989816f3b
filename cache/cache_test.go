package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(cfg *Config) (*MemoryCache, *time.Time) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := New(cfg, NewMetrics(nil))
	c.now = func() time.Time { return now }
	return c, &now
}

func TestMemoryCache_LookupStore(t *testing.T) {
	c, now := newTestCache(nil)
	const key = "https://cdn.example.com/a.mp3"

	_, ok := c.Lookup(key)
	assert.False(t, ok, "empty cache must miss")

	c.Store(key, Entry{ResolvedLocator: key, Expiry: now.Add(c.TTL())})

	entry, ok := c.Lookup(key)
	require.True(t, ok)
	assert.Equal(t, key, entry.Key)
	assert.Equal(t, key, entry.ResolvedLocator)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.CacheHitsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.CacheMissesTotal))
}

func TestMemoryCache_Expiry(t *testing.T) {
	c, now := newTestCache(nil)
	const key = "https://cdn.example.com/a.mp3"

	c.Store(key, Entry{ResolvedLocator: key, Expiry: now.Add(45 * time.Second)})

	*now = now.Add(45 * time.Second)
	_, ok := c.Lookup(key)
	assert.True(t, ok, "entry is live while expiry >= now")

	*now = now.Add(time.Millisecond)
	_, ok = c.Lookup(key)
	assert.False(t, ok, "stale entry must be ignored")
	assert.Equal(t, 1, c.Len(), "stale entries are not purged on lookup")

	c.Store(key, Entry{ResolvedLocator: key, Expiry: now.Add(45 * time.Second)})
	_, ok = c.Lookup(key)
	assert.True(t, ok, "store overwrites the stale entry")
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_Sweep(t *testing.T) {
	c, now := newTestCache(&Config{TTL: 45 * time.Second, SweepInterval: time.Minute})

	c.Store("old", Entry{Expiry: now.Add(time.Second)})
	c.Store("fresh", Entry{Expiry: now.Add(time.Hour)})

	*now = now.Add(time.Minute)
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.CacheEntries))
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := New(nil, nil)
	expiry := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		key := fmt.Sprintf("https://example.com/%d", i%5)
		go func() {
			defer wg.Done()
			c.Store(key, Entry{ResolvedLocator: key, Expiry: expiry})
		}()
		go func() {
			defer wg.Done()
			if entry, ok := c.Lookup(key); ok {
				assert.Equal(t, key, entry.ResolvedLocator)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, c.Len())
}

func TestMemoryCache_StartStop(t *testing.T) {
	c := New(&Config{TTL: time.Second, SweepInterval: 10 * time.Millisecond}, nil)
	c.Start()
	c.Stop()
	c.Stop()
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Equal(t, 45*time.Second, DefaultConfig().TTL)
	assert.Error(t, (&Config{}).Validate())
	assert.Error(t, (&Config{TTL: time.Second, SweepInterval: -1}).Validate())
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-insights/internal/ports"
)

const defaultMaxEntries = 1024

// LocalConfig tunes the sweeper. MaxEntries bounds the map; when it is full
// the entry closest to expiry is evicted first.
type LocalConfig struct {
	CleanupInterval time.Duration
	MaxEntries      int
}

type localEntry struct {
	value     string
	expiresAt time.Time
}

func (e localEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// LocalCache is the single-node ports.Cache: a bounded map with TTLs swept
// by a background goroutine.
type LocalCache struct {
	max int
	log *zap.Logger

	mu      sync.RWMutex
	entries map[string]localEntry

	stop     chan struct{}
	stopOnce sync.Once
}

func NewLocalCache(cfg LocalConfig, log *zap.Logger) *LocalCache {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	limit := cfg.MaxEntries
	if limit <= 0 {
		limit = defaultMaxEntries
	}

	c := &LocalCache{
		max:     limit,
		log:     log,
		entries: make(map[string]localEntry),
		stop:    make(chan struct{}),
	}
	go c.sweepEvery(interval)

	log.Info("Local document cache ready",
		zap.Duration("cleanup_interval", interval),
		zap.Int("max_entries", limit),
	)
	return c
}

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || e.expired(time.Now()) {
		return "", fmt.Errorf("local cache %s: %w", key, ports.ErrCacheMiss)
	}
	return e.value, nil
}

func (c *LocalCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal cache value: %w", err)
		}
		s = string(data)
	}

	e := localEntry{value: s}
	if expiration > 0 {
		e.expiresAt = time.Now().Add(expiration)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.max {
		c.evictLocked()
	}
	c.entries[key] = e
	return nil
}

func (c *LocalCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *LocalCache) Ping() error {
	return nil
}

func (c *LocalCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

// Len counts stored entries, expired ones included until the next sweep.
func (c *LocalCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictLocked drops expired entries, or failing that the one expiring first.
// Entries without a TTL are evicted only when nothing else is left.
func (c *LocalCache) evictLocked() {
	if c.purgeLocked(time.Now()) > 0 {
		return
	}

	var (
		victim string
		soon   time.Time
		found  bool
	)
	for k, e := range c.entries {
		switch {
		case !found:
			victim, soon, found = k, e.expiresAt, true
		case soon.IsZero() && !e.expiresAt.IsZero():
			victim, soon = k, e.expiresAt
		case !e.expiresAt.IsZero() && e.expiresAt.Before(soon):
			victim, soon = k, e.expiresAt
		}
	}
	if found {
		delete(c.entries, victim)
	}
}

func (c *LocalCache) purgeLocked(now time.Time) int {
	n := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *LocalCache) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			n := c.purgeLocked(time.Now())
			c.mu.Unlock()
			if n > 0 {
				c.log.Debug("Expired cache entries removed", zap.Int("count", n))
			}
		}
	}
}

package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/core"
)

// MemoryCache is an in-memory implementation of the VerdictCache interface
type MemoryCache struct {
	entries map[string]core.CacheEntry
	mu      sync.RWMutex
	logger  *zap.Logger
	janitor *janitor
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(logger *zap.Logger, cleanupFreq time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]core.CacheEntry),
		logger:  logger,
	}
	c.janitor = startJanitor(cleanupFreq, c.Cleanup, logger)
	return c
}

// Get retrieves a cached verdict for a message fingerprint
func (c *MemoryCache) Get(_ context.Context, fingerprint string) (*core.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[fingerprint]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(entry.ExpiresAt) {
		return nil, ErrExpired
	}
	return &entry, nil
}

// Set stores a cache entry
func (c *MemoryCache) Set(_ context.Context, entry *core.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[entry.Fingerprint] = *entry
	return nil
}

// Delete removes a cache entry
func (c *MemoryCache) Delete(_ context.Context, fingerprint string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, fingerprint)
	return nil
}

// Cleanup removes expired entries
func (c *MemoryCache) Cleanup(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expiredCount))
	return nil
}

// Len returns the number of stored entries, expired or not
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop stops the background cleanup task
func (c *MemoryCache) Stop() {
	c.janitor.stop()
}

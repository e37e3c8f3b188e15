package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/integration"
)

const defaultCleanupInterval = 30 * time.Second

// InMemoryMappingCache implements MappingCache using process-local storage.
// Suitable for single-instance deployments; a multi-instance deployment
// should use the Redis backend so invalidations reach every instance.
type InMemoryMappingCache struct {
	entries sync.Map // map[string]*mappingEntry
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	hits   int64
	misses int64
}

type mappingEntry struct {
	result    *integration.MappingResult
	expiresAt time.Time
}

func (e *mappingEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// NewInMemoryMappingCache creates a new in-memory mapping cache
func NewInMemoryMappingCache(logger *zap.Logger) *InMemoryMappingCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &InMemoryMappingCache{
		logger: logger,
		stopCh: make(chan struct{}),
	}

	go c.cleanupExpired()

	return c
}

// Get returns the cached result for a key, ok=false on miss
func (c *InMemoryMappingCache) Get(ctx context.Context, key string) (*integration.MappingResult, bool) {
	if value, ok := c.entries.Load(key); ok {
		entry := value.(*mappingEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			return entry.result, true
		}
		c.entries.Delete(key)
	}

	atomic.AddInt64(&c.misses, 1)
	return nil, false
}

// Set stores a result under a key with a TTL
func (c *InMemoryMappingCache) Set(ctx context.Context, key string, result *integration.MappingResult, ttl time.Duration) {
	if result == nil || ttl <= 0 {
		return
	}

	c.entries.Store(key, &mappingEntry{
		result:    result,
		expiresAt: time.Now().Add(ttl),
	})
}

// Invalidate removes specific keys
func (c *InMemoryMappingCache) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		c.entries.Delete(key)
	}
}

// InvalidateTenant removes every key belonging to a tenant
func (c *InMemoryMappingCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) {
	prefix := integration.MappingTenantKeyPrefix(tenantID)
	removed := 0

	c.entries.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			c.entries.Delete(key)
			removed++
		}
		return true
	})

	c.logger.Debug("invalidated tenant mapping cache",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("removed", removed))
}

// Close stops the background cleanup goroutine
func (c *InMemoryMappingCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// Stats returns hit and miss counters
func (c *InMemoryMappingCache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

func (c *InMemoryMappingCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.entries.Range(func(key, value any) bool {
				if value.(*mappingEntry).isExpired() {
					c.entries.Delete(key)
				}
				return true
			})
		}
	}
}

// Ensure InMemoryMappingCache implements MappingCache
var _ integration.MappingCache = (*InMemoryMappingCache)(nil)

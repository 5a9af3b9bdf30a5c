package cache

import (
	"strings"
	"time"

	"github.com/isida-tgbot-go/internal/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Service defines cache operations for external lookups
type Service interface {
	Get(namespace, key string) (any, bool)
	Set(namespace, key string, value any)
	Clear()
}

// Cache keeps recent external API results in memory.
// Keys are namespaced per service and matched case-insensitively.
type Cache struct {
	enabled bool
	cache   *cache.Cache
	logger  *logrus.Logger
	metrics *middleware.Metrics
}

// NewCache creates a cache whose entries expire after ttl.
// A non-positive ttl disables caching.
func NewCache(ttl time.Duration, logger *logrus.Logger, metrics *middleware.Metrics) *Cache {
	if ttl <= 0 {
		return &Cache{enabled: false, logger: logger, metrics: metrics}
	}

	return &Cache{
		enabled: true,
		cache:   cache.New(ttl, ttl*2),
		logger:  logger,
		metrics: metrics,
	}
}

// Get retrieves a cached value
func (c *Cache) Get(namespace, key string) (any, bool) {
	if !c.enabled {
		return nil, false
	}

	if val, found := c.cache.Get(c.key(namespace, key)); found {
		c.metrics.RecordCacheHit(namespace)
		c.logger.WithFields(logrus.Fields{
			"namespace": namespace,
			"key":       key,
		}).Debug("Cache hit")
		return val, true
	}

	c.metrics.RecordCacheMiss(namespace)
	return nil, false
}

// Set stores a value with the default expiration
func (c *Cache) Set(namespace, key string, value any) {
	if !c.enabled {
		return
	}
	c.cache.SetDefault(c.key(namespace, key), value)
}

// Clear removes all cached entries
func (c *Cache) Clear() {
	if !c.enabled {
		return
	}
	c.cache.Flush()
	c.logger.Info("Cache cleared")
}

// Len returns the number of stored entries, expired ones included
func (c *Cache) Len() int {
	if !c.enabled {
		return 0
	}
	return c.cache.ItemCount()
}

func (c *Cache) key(namespace, key string) string {
	return namespace + ":" + strings.ToLower(strings.TrimSpace(key))
}

// Package cache provides the process-wide TTL store for weather records.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mkovalv/city-weather/internal/metrics"
	"github.com/mkovalv/city-weather/internal/weather"
)

// sweepInterval is how often expired entries are actively removed; expiry
// is also checked passively on every read.
const sweepInterval = 60 * time.Second

// RecordCache is a concurrency-safe TTL cache of weather records.
// It implements weather.Store.
type RecordCache struct {
	cache *gocache.Cache
}

// New creates a RecordCache whose entries expire after ttl.
func New(ttl time.Duration) *RecordCache {
	return &RecordCache{
		cache: gocache.New(ttl, sweepInterval),
	}
}

// Get returns the stored record for key if present and not expired.
func (c *RecordCache) Get(key string) (weather.Record, bool) {
	v, ok := c.cache.Get(key)
	if !ok {
		metrics.CacheMisses.Inc()
		return weather.Record{}, false
	}
	rec, ok := v.(weather.Record)
	if !ok {
		metrics.CacheMisses.Inc()
		return weather.Record{}, false
	}
	metrics.CacheHits.Inc()
	return rec, true
}

// Set stores the record under key with the configured TTL, overwriting any
// existing entry.
func (c *RecordCache) Set(key string, rec weather.Record) {
	c.cache.SetDefault(key, rec)
}

// Has reports whether a non-expired entry exists for key.
func (c *RecordCache) Has(key string) bool {
	_, ok := c.cache.Get(key)
	return ok
}

// Flush removes all entries. Not used on the request path.
func (c *RecordCache) Flush() {
	c.cache.Flush()
}

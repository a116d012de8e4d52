package core

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"resizer/internal/pkg/metrics"
)

// Response header names owned by this package.
const (
	HeaderSource           = "X-Source"
	HeaderDerivative       = "X-Derivative"
	HeaderTransformFailed  = "X-Transform-Failed"
	HeaderStrategyAttempts = "X-Strategy-Attempts"
)

// HeaderCache memoizes derived response headers per
// (status, cache policy, source, derivative) tuple, with the same
// bounding and expiry behavior as the prepared cache.
type HeaderCache struct {
	cfg   CacheConfig
	table *lruTable
	log   *zap.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewHeaderCache creates the cache and, when enabled with a sweep
// interval, starts the background expiry sweep.
func NewHeaderCache(cfg CacheConfig, log *zap.Logger) *HeaderCache {
	if log == nil {
		log = zap.NewNop()
	}
	c := &HeaderCache{
		cfg:   cfg,
		table: newLRUTable(cfg.MaxEntries, cfg.TTL),
		log:   log,
		done:  make(chan struct{}),
	}
	if cfg.Enabled && cfg.SweepInterval > 0 {
		go c.sweepLoop()
	}
	return c
}

// Get returns a copy of the derived headers for the tuple. The copy is
// the caller's to mutate.
func (c *HeaderCache) Get(status int, policy CachePolicy, source, derivative string) http.Header {
	if !c.cfg.Enabled {
		return buildHeaders(status, policy, source, derivative)
	}

	key := fmt.Sprintf("%d|%t|%d|%s|%s", status, policy.Cacheable, policy.TTLFor(status), source, derivative)
	if cached, ok := c.table.get(key); ok {
		metrics.RecordCacheEvent("headers", "hit")
		return cached.(http.Header).Clone()
	}

	metrics.RecordCacheEvent("headers", "miss")
	headers := buildHeaders(status, policy, source, derivative)
	if evicted := c.table.put(key, headers); evicted > 0 {
		metrics.RecordCacheEvent("headers", "eviction")
	}
	return headers.Clone()
}

// Close stops the background sweep. Safe to call more than once.
func (c *HeaderCache) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *HeaderCache) sweepLoop() {
	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if removed := c.table.sweep(); removed > 0 {
				c.log.Debug("header cache sweep removed expired entries",
					zap.Int("count", removed))
			}
		case <-c.done:
			return
		}
	}
}

func buildHeaders(status int, policy CachePolicy, source, derivative string) http.Header {
	h := make(http.Header)

	ttl := policy.TTLFor(status)
	if policy.Cacheable && ttl > 0 {
		h.Set("Cache-Control", "public, max-age="+strconv.Itoa(ttl))
	} else {
		h.Set("Cache-Control", "no-store")
	}
	if source != "" {
		h.Set(HeaderSource, source)
	}
	if derivative != "" {
		h.Set(HeaderDerivative, derivative)
	}
	return h
}

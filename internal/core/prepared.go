package core

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"resizer/internal/pkg/metrics"
)

// Prepared holds the derived encodings of one normalized option set.
type Prepared struct {
	// Options is the normalized option set the encodings derive from.
	Options Options
	// NativeBag is the option encoding passed to the external transform
	// capability on an outbound fetch.
	NativeBag map[string]interface{}
	// PathSegment is the encoded parameter segment embedded ahead of the
	// object key in gateway URLs.
	PathSegment string
	// QueryParams is the option set as a URL query string.
	QueryParams string
	// CacheKey is the canonical serialization keying this record.
	CacheKey string
}

func prepare(o Options) *Prepared {
	return &Prepared{
		Options:     o,
		NativeBag:   o.nativeBag(),
		PathSegment: o.pathSegment(),
		QueryParams: o.queryParams(),
		CacheKey:    o.CanonicalKey(),
	}
}

// PreparedCache memoizes Prepared records per canonical option key.
// Disabled, it computes fresh on every call with no memory growth.
type PreparedCache struct {
	cfg   CacheConfig
	table *lruTable
	group singleflight.Group
	log   *zap.Logger

	// encode is the underlying encoding routine; tests swap it to count
	// computations.
	encode func(Options) *Prepared

	done      chan struct{}
	closeOnce sync.Once
}

// NewPreparedCache creates the cache and, when enabled with a sweep
// interval, starts the background expiry sweep.
func NewPreparedCache(cfg CacheConfig, log *zap.Logger) *PreparedCache {
	if log == nil {
		log = zap.NewNop()
	}
	c := &PreparedCache{
		cfg:    cfg,
		table:  newLRUTable(cfg.MaxEntries, cfg.TTL),
		log:    log,
		encode: prepare,
		done:   make(chan struct{}),
	}
	if cfg.Enabled && cfg.SweepInterval > 0 {
		go c.sweepLoop()
	}
	return c
}

// Get returns the Prepared record for the option set, computing and
// storing it on a miss. Concurrent misses for the same canonical key
// compute once.
func (c *PreparedCache) Get(o Options) *Prepared {
	if !c.cfg.Enabled {
		return c.encode(o)
	}

	key := o.CanonicalKey()
	if cached, ok := c.table.get(key); ok {
		metrics.RecordCacheEvent("prepared", "hit")
		return cached.(*Prepared)
	}

	value, _, _ := c.group.Do(key, func() (interface{}, error) {
		if cached, ok := c.table.get(key); ok {
			return cached, nil
		}
		metrics.RecordCacheEvent("prepared", "miss")
		prep := c.encode(o)
		if evicted := c.table.put(key, prep); evicted > 0 {
			metrics.RecordCacheEvent("prepared", "eviction")
			c.log.Debug("prepared cache evicted entries",
				zap.Int("count", evicted),
				zap.Int("max_entries", c.cfg.MaxEntries))
		}
		return prep, nil
	})
	return value.(*Prepared)
}

// Len returns the current number of cached entries.
func (c *PreparedCache) Len() int {
	return c.table.len()
}

// Close stops the background sweep. Safe to call more than once.
func (c *PreparedCache) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *PreparedCache) sweepLoop() {
	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if removed := c.table.sweep(); removed > 0 {
				c.log.Debug("prepared cache sweep removed expired entries",
					zap.Int("count", removed))
			}
		case <-c.done:
			return
		}
	}
}

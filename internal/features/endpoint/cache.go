package endpoint

import (
	"time"

	"go-cms/internal/config"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gateCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cms_endpoint_cache_hits_total",
		Help: "Public gate lookups served from the endpoint cache",
	})
	gateCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cms_endpoint_cache_misses_total",
		Help: "Public gate lookups that went to the store",
	})
)

// GateCache holds recently resolved endpoints by slug. Each instance has its
// own cache, so changes made elsewhere become visible after at most one TTL.
type GateCache struct {
	cache *expirable.LRU[string, Endpoint]
}

func NewGateCache(maxSize int, ttl time.Duration) *GateCache {
	return &GateCache{cache: expirable.NewLRU[string, Endpoint](maxSize, nil, ttl)}
}

func NewGateCacheFromConfig(cfg *config.Config) *GateCache {
	return NewGateCache(cfg.EndpointCacheSize, cfg.EndpointCacheTTL)
}

func (c *GateCache) Get(slug string) (Endpoint, bool) {
	e, ok := c.cache.Get(slug)
	if ok {
		gateCacheHitsTotal.Inc()
	} else {
		gateCacheMissesTotal.Inc()
	}
	return e, ok
}

func (c *GateCache) Set(e Endpoint) {
	c.cache.Add(e.Slug, e)
}

func (c *GateCache) Invalidate(slug string) {
	c.cache.Remove(slug)
}

package cache

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/bnb-chain/keys-hub/config"
	"github.com/bnb-chain/keys-hub/metrics"
)

// Cache memoizes immutable values, such as block headers looked up by hash.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Len() int
}

const DefaultCacheSize = config.DefaultCacheSize

// LocalCache is an in-process LRU that counts its lookups under its name.
type LocalCache struct {
	entries *lru.Cache
	name    string
}

func NewLocalCache(name string, size uint64) (*LocalCache, error) {
	entries, err := lru.New(int(size))
	if err != nil {
		return nil, err
	}
	return &LocalCache{entries: entries, name: name}, nil
}

func (c *LocalCache) Get(key string) (interface{}, bool) {
	value, ok := c.entries.Get(key)
	result := metrics.CacheMiss
	if ok {
		result = metrics.CacheHit
	}
	metrics.CacheLookupsCounter.WithLabelValues(c.name, result).Inc()
	return value, ok
}

func (c *LocalCache) Set(key string, value interface{}) {
	c.entries.Add(key, value)
}

func (c *LocalCache) Len() int {
	return c.entries.Len()
}

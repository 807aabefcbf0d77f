package resolver

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	regmodels "namedex/internal/registry/models"
)

// DefaultCacheSize bounds the shared resolution cache. The origin system
// grew an unbounded per-instance map; an LRU keeps repeated vote-list
// lookups hot without letting a long import swallow memory.
const DefaultCacheSize = 4096

type cacheKey struct {
	name  string
	party string
	asOf  string
}

// Cache is a bounded, concurrency-safe map from (name, partyHint, asOf) to
// the resolved person. Safe to share across resolvers for different dates.
type Cache struct {
	lru *lru.Cache[cacheKey, regmodels.Person]
}

// NewCache creates a resolution cache holding at most size entries.
func NewCache(size int) (*Cache, error) {
	inner, err := lru.New[cacheKey, regmodels.Person](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: inner}, nil
}

func (c *Cache) get(name, party string, asOf time.Time) (regmodels.Person, bool) {
	return c.lru.Get(cacheKey{name: name, party: party, asOf: asOf.Format(time.DateOnly)})
}

func (c *Cache) put(name, party string, asOf time.Time, p regmodels.Person) {
	c.lru.Add(cacheKey{name: name, party: party, asOf: asOf.Format(time.DateOnly)}, p)
}

// Len reports the number of cached resolutions.
func (c *Cache) Len() int { return c.lru.Len() }

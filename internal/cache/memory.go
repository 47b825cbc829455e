package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Domenick1991/farequote/internal/domain"
)

// MemoryCache keeps facets in process. It is used when no redis address
// is configured; entries are only dropped by TTL or by this process.
type MemoryCache struct {
	cache *gocache.Cache
}

func NewMemoryCache(facetsTTL time.Duration) *MemoryCache {
	return &MemoryCache{cache: gocache.New(facetsTTL, 2*facetsTTL)}
}

// GetFacets returns nil, nil on a miss.
func (c *MemoryCache) GetFacets(_ context.Context) (*domain.Facets, error) {
	v, ok := c.cache.Get(facetsKey())
	if !ok {
		return nil, nil
	}
	facets := v.(domain.Facets)
	return &facets, nil
}

// SetFacets stores the struct by value.
func (c *MemoryCache) SetFacets(_ context.Context, facets *domain.Facets) error {
	c.cache.SetDefault(facetsKey(), *facets)
	return nil
}

func (c *MemoryCache) InvalidateFacets(_ context.Context) error {
	c.cache.Delete(facetsKey())
	return nil
}

func (c *MemoryCache) Close() error {
	c.cache.Flush()
	return nil
}

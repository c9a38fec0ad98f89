package search

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// queryCache holds recent query embeddings. Concurrent misses for the same
// key share one embedding call.
type queryCache struct {
	lru   *lru.Cache[string, []float32]
	group singleflight.Group
}

func newQueryCache(size int) (*queryCache, error) {
	if size <= 0 {
		return nil, ErrInvalidCacheSize
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &queryCache{lru: c}, nil
}

// get returns the cached vector for key or loads it. hit reports whether the
// value came from the cache. Errors are never cached.
func (c *queryCache) get(ctx context.Context, key string, load func(context.Context) ([]float32, error)) (vector []float32, hit bool, err error) {
	if v, ok := c.lru.Get(key); ok {
		return v, true, nil
	}

	val, err, _ := c.group.Do(key, func() (any, error) {
		loaded, loadErr := load(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		c.lru.Add(key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]float32), false, nil
}

func (c *queryCache) len() int {
	return c.lru.Len()
}

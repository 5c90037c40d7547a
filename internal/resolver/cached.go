package resolver

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

var _ types.Resolver = (*Cached)(nil)

// Cached caches the elements returned by another resolver. Concurrent
// lookups of the same element share one call to the underlying resolver.
// Only successful lookups are cached.
type Cached struct {
	next   types.Resolver
	logger *zap.Logger

	mu    sync.RWMutex
	hits  map[elementKey]types.Element
	group singleflight.Group
}

// NewCached wraps next. A nil logger discards output.
func NewCached(next types.Resolver, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{
		next:   next,
		logger: logger,
		hits:   make(map[elementKey]types.Element),
	}
}

// Resolve returns the cached element or asks the underlying resolver.
func (c *Cached) Resolve(t types.ElementType, id int64) (types.Element, error) {
	k := elementKey{t, id}
	c.mu.RLock()
	el, ok := c.hits[k]
	c.mu.RUnlock()
	if ok {
		return el, nil
	}

	v, err, shared := c.group.Do(types.ElementKey(t, id), func() (any, error) {
		el, err := c.next.Resolve(t, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.hits[k] = el
		c.mu.Unlock()
		return el, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("shared element lookup", zap.String("element", types.ElementKey(t, id)))
	}
	return v.(types.Element), nil
}

// Invalidate drops the cached entry for one element.
func (c *Cached) Invalidate(t types.ElementType, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.hits, elementKey{t, id})
}

// Purge drops every cached entry.
func (c *Cached) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits = make(map[elementKey]types.Element)
}

// Len returns the number of cached elements.
func (c *Cached) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hits)
}

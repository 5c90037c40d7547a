// Package resolver provides element resolvers for the link codec: an
// in-memory element store and a caching decorator for any resolver.
package resolver

import (
	"sync"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

var _ types.Resolver = (*Memory)(nil)

type elementKey struct {
	t  types.ElementType
	id int64
}

// Memory is an in-memory element store. Elements reference other elements
// by type and id; references to elements not in the store are ignored when
// collecting cache tags.
type Memory struct {
	mu       sync.RWMutex
	elements map[elementKey]*memElement
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{elements: make(map[elementKey]*memElement)}
}

// Add stores an element, replacing any element with the same type and id.
func (m *Memory) Add(t types.ElementType, id int64, path string, refs ...types.Dependency) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elements[elementKey{t, id}] = &memElement{
		store: m,
		id:    id,
		t:     t,
		path:  path,
		refs:  append([]types.Dependency(nil), refs...),
	}
}

// Remove deletes an element. Removing an absent element is a no-op.
func (m *Memory) Remove(t types.ElementType, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.elements, elementKey{t, id})
}

// Resolve returns the element with the given type and id.
// Returns types.ErrNotFound if it is not stored.
func (m *Memory) Resolve(t types.ElementType, id int64) (types.Element, error) {
	el, ok := m.lookup(t, id)
	if !ok {
		return nil, types.ErrNotFound
	}
	return el, nil
}

func (m *Memory) lookup(t types.ElementType, id int64) (*memElement, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	el, ok := m.elements[elementKey{t, id}]
	return el, ok
}

type memElement struct {
	store *Memory
	id    int64
	t     types.ElementType
	path  string
	refs  []types.Dependency
}

func (e *memElement) ID() int64               { return e.id }
func (e *memElement) Type() types.ElementType { return e.t }
func (e *memElement) FullPath() string        { return e.path }
func (e *memElement) CacheTag() string        { return types.ElementKey(e.t, e.id) }

func (e *memElement) CollectCacheTags(tags map[string]bool) map[string]bool {
	if tags == nil {
		tags = make(map[string]bool)
	}
	tags[e.CacheTag()] = true
	for _, ref := range e.refs {
		if tags[types.ElementKey(ref.Type, ref.ID)] {
			continue
		}
		if next, ok := e.store.lookup(ref.Type, ref.ID); ok {
			tags = next.CollectCacheTags(tags)
		}
	}
	return tags
}

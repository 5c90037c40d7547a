package linkfield

import (
	"maps"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

// Dependencies returns the element l references keyed "<type>_<id>".
// Unresolvable references contribute nothing.
func (c *Codec) Dependencies(l *types.Link) map[string]types.Dependency {
	deps := make(map[string]types.Dependency)
	if l == nil || !l.HasInternalReference() {
		return deps
	}
	el, err := c.resolve(l)
	if err != nil {
		return deps
	}
	deps[types.ElementKey(el.Type(), el.ID())] = types.Dependency{ID: el.ID(), Type: el.Type()}
	return deps
}

// CacheTags returns tags extended with the cache tags of the element l
// references and everything that element depends on. An element whose tag
// is already present is not traversed again. tags is not modified.
func (c *Codec) CacheTags(l *types.Link, tags map[string]bool) map[string]bool {
	out := make(map[string]bool, len(tags)+1)
	maps.Copy(out, tags)
	if l == nil || !l.HasInternalReference() {
		return out
	}
	el, err := c.resolve(l)
	if err != nil {
		return out
	}
	if !out[el.CacheTag()] {
		out = el.CollectCacheTags(out)
	}
	return out
}

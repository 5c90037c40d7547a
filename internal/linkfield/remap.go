package linkfield

import "github.com/mesh-intelligence/datafields/pkg/types"

// RemapIDs rewrites the internal id of l through mapping, in place, and
// returns l. Only internal links with a mapping entry change.
func (c *Codec) RemapIDs(l *types.Link, mapping types.IDMapping) *types.Link {
	if l == nil || l.LinkType != types.LinkTypeInternal {
		return l
	}
	if newID, ok := mapping.Lookup(l.InternalType, l.Internal); ok {
		l.Internal = newID
	}
	return l
}

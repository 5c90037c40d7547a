package linkfield

import (
	"errors"
	"fmt"

	"github.com/mesh-intelligence/datafields/internal/blob"
	"github.com/mesh-intelligence/datafields/pkg/types"
)

// EncodeForStorage returns the blob stored for l, or nil when there is
// nothing to store. The caller's value is never modified: the owner and the
// derived path are dropped from a copy, an internal link without an id
// loses its link type, and a reference that fails validation is dropped
// instead of failing the save.
// Returns types.ErrInvalidData for attributes that are not valid UTF-8.
func (c *Codec) EncodeForStorage(l *types.Link) ([]byte, error) {
	if l == nil {
		return nil, nil
	}
	data := l.Clone()
	data.SetOwner(types.Owner{})
	data.Path = ""

	// Sanitize before the id check so a dropped reference is stored in the
	// same shape a re-encode of the decoded value produces.
	data, _ = c.Sanitize(data)
	if data.LinkType == types.LinkTypeInternal && data.Internal == 0 {
		data.LinkType = types.LinkTypeNone
		data.InternalType = types.ElementTypeNone
	}
	if data.IsEmpty() {
		return nil, nil
	}
	return blob.Encode(c.serializer, data)
}

// EncodeForQuery returns the query column value for l. The query column
// holds the same blob as the storage column.
func (c *Codec) EncodeForQuery(l *types.Link) ([]byte, error) {
	return c.EncodeForStorage(l)
}

// DecodeFromStorage restores a link from its blob. An empty blob yields
// nil. A non-zero owner is attached as editor context. Dangling references
// are dropped the same way EncodeForStorage drops them.
// Returns types.ErrInvalidBlob when data is not a link blob.
func (c *Codec) DecodeFromStorage(data []byte, owner types.Owner) (*types.Link, error) {
	if len(data) == 0 {
		return nil, nil
	}
	l, err := blob.Decode(c.serializer, data)
	if errors.Is(err, blob.ErrNotLink) {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidBlob, err)
	}
	if err != nil {
		return nil, err
	}
	if !owner.IsZero() {
		l.SetOwner(owner)
	}
	l, _ = c.Sanitize(l)
	return l, nil
}

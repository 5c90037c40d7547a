package linkfield

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/mesh-intelligence/datafields/internal/blob"
	"github.com/mesh-intelligence/datafields/pkg/types"
)

const opCSVImport = "CSV import"

// ToCSV returns the CSV cell for l: the base64 of its blob, unvalidated.
// The derived path is not exported. A nil link exports as the empty cell.
func (c *Codec) ToCSV(l *types.Link) (string, error) {
	if l == nil {
		return "", nil
	}
	data, err := blob.Encode(c.serializer, l)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// FromCSV restores a link from a CSV cell. The empty cell and cells that
// decode to something other than a link yield nil.
// Returns a *types.TransportError for cells that are not base64 blobs.
func (c *Codec) FromCSV(cell string) (*types.Link, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(cell)
	if err != nil {
		return nil, &types.TransportError{Op: opCSVImport, Err: errors.Join(types.ErrInvalidData, err)}
	}
	l, err := blob.Decode(c.serializer, data)
	if errors.Is(err, blob.ErrNotLink) {
		return nil, nil
	}
	if err != nil {
		return nil, &types.TransportError{Op: opCSVImport, Err: errors.Join(types.ErrInvalidData, err)}
	}
	return l, nil
}

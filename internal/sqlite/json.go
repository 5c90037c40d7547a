package sqlite

import "github.com/mesh-intelligence/datafields/pkg/types"

// elementJSON is one line of elements.jsonl.
type elementJSON struct {
	ElementType string             `json:"element_type"`
	ElementID   int64              `json:"element_id"`
	Path        string             `json:"path"`
	Refs        []types.Dependency `json:"refs,omitempty"`
}

// recordLinkJSON is one line of record_links.jsonl. Data and Query hold
// the storage and query columns, base64 encoded by the JSON encoder since
// CBOR blobs are binary.
type recordLinkJSON struct {
	RecordID  string `json:"record_id"`
	FieldName string `json:"field_name"`
	Language  string `json:"language"`
	Data      []byte `json:"data"`
	Query     []byte `json:"query"`
}

func (e elementJSON) record() *types.ElementRecord {
	return &types.ElementRecord{
		Type: types.ElementType(e.ElementType),
		ID:   e.ElementID,
		Path: e.Path,
		Refs: e.Refs,
	}
}

func elementToJSON(r *types.ElementRecord) elementJSON {
	return elementJSON{
		ElementType: string(r.Type),
		ElementID:   r.ID,
		Path:        r.Path,
		Refs:        r.Refs,
	}
}

func (rl recordLinkJSON) valid() bool {
	return rl.RecordID != "" && rl.FieldName != "" && len(rl.Data) > 0
}

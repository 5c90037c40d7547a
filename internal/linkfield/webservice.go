package linkfield

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"slices"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

const (
	opWebserviceImport = "webservice import"

	// mappingFailureScope is the scope reported to the id mapper for
	// references that could not be resolved during an object import.
	mappingFailureScope = "object"
)

// ToWebservice returns every attribute of l for web-service export. The
// owner back-reference is not exported. Returns nil for a nil link.
func (c *Codec) ToWebservice(l *types.Link) map[string]any {
	if l == nil {
		return nil
	}
	return fieldMap(l)
}

// FromWebservice builds a link from a web-service payload. input may be a
// map[string]any, a map[string]string or the bytes of a JSON object.
//
// A payload with text and internalType/internal references an element: the
// id goes through mapper when one is given and must resolve. An unresolved
// reference is recorded and skipped when mapper tolerates mapping
// failures; otherwise it fails the import. relatedID names the record being
// imported in recorded failures.
//
// Returns nil for an empty payload and a *types.TransportError for
// payloads that are not maps, carry unknown keys or reference unknown
// elements.
func (c *Codec) FromWebservice(input any, relatedID string, mapper types.IDMapper) (*types.Link, error) {
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, nil
	}

	switch {
	case !isBlank(m[keyText]) && !isBlank(m[keyDirect]):
		return buildLink(m)

	case !isBlank(m[keyText]) && !isBlank(m[keyInternalType]) && !isBlank(m[keyInternal]):
		return c.importInternal(m, relatedID, mapper)

	default:
		return buildLink(m)
	}
}

func (c *Codec) importInternal(m map[string]any, relatedID string, mapper types.IDMapper) (*types.Link, error) {
	typeName, err := toString(m[keyInternalType])
	if err != nil {
		return nil, &types.TransportError{Op: opWebserviceImport, Key: keyInternalType, Err: errors.Join(types.ErrInvalidData, err)}
	}
	t, err := types.ParseElementType(typeName)
	if err != nil {
		return nil, &types.TransportError{Op: opWebserviceImport, Key: keyInternalType, Err: errors.Join(types.ErrInvalidData, err)}
	}
	oldID, err := toInt64(m[keyInternal])
	if err != nil {
		return nil, &types.TransportError{Op: opWebserviceImport, Key: keyInternal, Err: errors.Join(types.ErrInvalidData, err)}
	}

	id := oldID
	if mapper != nil {
		if mapped, ok := mapper.MapID(t, oldID); ok {
			id = mapped
		}
	}

	if _, err := c.resolver.Resolve(t, id); err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("resolving %s: %w", types.ElementKey(t, id), err)
		}
		if tm, ok := mapper.(types.TolerantIDMapper); ok && tm.IgnoreMappingFailures() {
			tm.RecordMappingFailure(mappingFailureScope, relatedID, t, oldID)
			c.logger.Warn("skipping link to unknown element",
				zap.String("related_id", relatedID),
				zap.String("internal_type", string(t)),
				zap.Int64("internal", oldID),
			)
			return nil, nil
		}
		return nil, &types.TransportError{
			Op:  opWebserviceImport,
			Key: keyInternal,
			Err: fmt.Errorf("%w with type [ %s ] and id [ %d ]", types.ErrUnknownElement, t, oldID),
		}
	}

	l, err := buildLink(m)
	if err != nil {
		return nil, err
	}
	l.Internal = id
	return l, nil
}

// buildLink assigns every key of m, failing on keys that name no attribute.
func buildLink(m map[string]any) (*types.Link, error) {
	l := &types.Link{}
	for _, key := range slices.Sorted(maps.Keys(m)) {
		if err := assignField(l, key, m[key]); err != nil {
			return nil, &types.TransportError{Op: opWebserviceImport, Key: key, Err: err}
		}
	}
	return l, nil
}

// inputMap normalizes a web-service payload.
func inputMap(input any) (map[string]any, error) {
	switch x := input.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return x, nil
	case map[string]string:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = v
		}
		return m, nil
	case []byte:
		return decodeObject(x)
	case json.RawMessage:
		return decodeObject(x)
	default:
		return nil, &types.TransportError{Op: opWebserviceImport, Err: fmt.Errorf("%w: unsupported payload %T", types.ErrInvalidData, input)}
	}
}

func decodeObject(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, &types.TransportError{Op: opWebserviceImport, Err: errors.Join(types.ErrInvalidData, err)}
	}
	return m, nil
}

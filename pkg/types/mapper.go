package types

// IDMapping holds old-to-new element ids per element type, as produced when
// records are copied between environments with different primary keys.
type IDMapping map[ElementType]map[int64]int64

// Lookup returns the mapped id for (t, id).
func (m IDMapping) Lookup(t ElementType, id int64) (int64, bool) {
	ids, ok := m[t]
	if !ok {
		return 0, false
	}
	newID, ok := ids[id]
	return newID, ok
}

// IDMapper translates element ids during imports.
type IDMapper interface {
	// MapID returns the id to use for (t, oldID), or false if there is no
	// mapping for it.
	MapID(t ElementType, oldID int64) (int64, bool)
}

// TolerantIDMapper is an IDMapper that can be told to record unresolvable
// references instead of failing the import.
type TolerantIDMapper interface {
	IDMapper

	IgnoreMappingFailures() bool
	RecordMappingFailure(scope, relatedID string, t ElementType, id int64)
}

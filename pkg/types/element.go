package types

import "fmt"

// ElementType names a kind of managed element a link can reference.
type ElementType string

// Element types: documents, assets and data objects.
const (
	ElementTypeDocument ElementType = "document"
	ElementTypeAsset    ElementType = "asset"
	ElementTypeObject   ElementType = "object"
	ElementTypeNone     ElementType = ""
)

// validElementTypes is the set of element types a link may reference.
var validElementTypes = map[ElementType]bool{
	ElementTypeDocument: true,
	ElementTypeAsset:    true,
	ElementTypeObject:   true,
}

// IsValidElementType reports whether t is a recognized element type.
func IsValidElementType(t ElementType) bool {
	return validElementTypes[t]
}

// ParseElementType converts s to an ElementType.
// Returns ErrInternalTypeUnknown if s is not a recognized type.
func ParseElementType(s string) (ElementType, error) {
	t := ElementType(s)
	if !IsValidElementType(t) {
		return ElementTypeNone, fmt.Errorf("%w: %q", ErrInternalTypeUnknown, s)
	}
	return t, nil
}

// ElementKey formats the "<type>_<id>" key used for dependencies and
// cache tags.
func ElementKey(t ElementType, id int64) string {
	return fmt.Sprintf("%s_%d", t, id)
}

// Element is a managed entity a link can point to. Elements contribute
// cache invalidation tags for themselves and, transitively, for the
// elements they reference.
type Element interface {
	ID() int64
	Type() ElementType

	// FullPath is the element's display path.
	FullPath() string

	// CacheTag is the element's own invalidation key.
	CacheTag() string

	// CollectCacheTags returns tags extended with this element's tag and
	// the tags of every element it references. Already present tags are
	// not traversed again.
	CollectCacheTags(tags map[string]bool) map[string]bool
}

// Resolver looks up elements by type and id.
// Resolve returns ErrNotFound when no such element exists.
type Resolver interface {
	Resolve(t ElementType, id int64) (Element, error)
}

// Dependency is an edge from a field value to a referenced element.
type Dependency struct {
	ID   int64       `json:"id" yaml:"id"`
	Type ElementType `json:"type" yaml:"type"`
}

// ElementRecord is the stored form of an element: its path and the
// elements it references.
type ElementRecord struct {
	Type ElementType  `json:"type" yaml:"type"`
	ID   int64        `json:"id" yaml:"id"`
	Path string       `json:"path" yaml:"path"`
	Refs []Dependency `json:"refs,omitempty" yaml:"refs,omitempty"`
}

// Validate checks the record's type and id and those of its references.
func (r *ElementRecord) Validate() error {
	if _, err := ParseElementType(string(r.Type)); err != nil {
		return err
	}
	if r.ID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, r.ID)
	}
	for _, ref := range r.Refs {
		if _, err := ParseElementType(string(ref.Type)); err != nil {
			return fmt.Errorf("reference: %w", err)
		}
		if ref.ID <= 0 {
			return fmt.Errorf("reference: %w: %d", ErrInvalidID, ref.ID)
		}
	}
	return nil
}

// Package blob encodes link values into the storage blob written to the
// object store and into the CSV transport.
package blob

import (
	"fmt"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

// Serializer marshals blob envelopes. Implementations must be deterministic
// so that re-encoding a decoded value yields the same bytes.
type Serializer interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Registry maps format names to serializers.
type Registry struct{ byName map[string]Serializer }

// NewRegistry returns a registry preloaded with the JSON and CBOR
// serializers.
func NewRegistry() (*Registry, error) {
	r := &Registry{byName: make(map[string]Serializer)}
	r.Register(JSON())
	c, err := CBOR()
	if err != nil {
		return nil, err
	}
	r.Register(c)
	return r, nil
}

// Register adds a serializer, replacing any with the same name.
func (r *Registry) Register(s Serializer) { r.byName[s.Name()] = s }

// Get returns the serializer for name.
// Returns types.ErrBlobFormatUnknown if none is registered.
func (r *Registry) Get(name string) (Serializer, error) {
	s, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrBlobFormatUnknown, name)
	}
	return s, nil
}

// ForFormat is a shortcut for NewRegistry().Get(name).
func ForFormat(name string) (Serializer, error) {
	r, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	return r.Get(name)
}

// Package idmap implements the id mapper used when records are imported
// into an environment whose element ids differ from the source.
package idmap

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

var _ types.TolerantIDMapper = (*Mapper)(nil)

// Failure records a reference that could not be resolved during an import.
type Failure struct {
	Scope     string            `json:"scope" yaml:"scope"`
	RelatedID string            `json:"related_id" yaml:"related_id"`
	Type      types.ElementType `json:"type" yaml:"type"`
	ID        int64             `json:"id" yaml:"id"`
}

// Mapper translates ids through a fixed table and optionally tolerates
// unresolvable references by recording them.
type Mapper struct {
	mapping types.IDMapping
	ignore  bool

	mu       sync.Mutex
	failures []Failure
}

// New creates a mapper over mapping. When ignoreFailures is set, importers
// record unresolvable references instead of failing.
func New(mapping types.IDMapping, ignoreFailures bool) *Mapper {
	if mapping == nil {
		mapping = types.IDMapping{}
	}
	return &Mapper{mapping: mapping, ignore: ignoreFailures}
}

// MapID returns the mapped id for (t, oldID).
func (m *Mapper) MapID(t types.ElementType, oldID int64) (int64, bool) {
	return m.mapping.Lookup(t, oldID)
}

// IgnoreMappingFailures reports whether failures are recorded rather than
// returned.
func (m *Mapper) IgnoreMappingFailures() bool {
	return m.ignore
}

// RecordMappingFailure remembers an unresolvable reference.
func (m *Mapper) RecordMappingFailure(scope, relatedID string, t types.ElementType, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, Failure{Scope: scope, RelatedID: relatedID, Type: t, ID: id})
}

// Failures returns a copy of the recorded failures in recording order.
func (m *Mapper) Failures() []Failure {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Failure(nil), m.failures...)
}

// Mapping returns the id table.
func (m *Mapper) Mapping() types.IDMapping {
	return m.mapping
}

// mappingFile is the YAML layout of a mapping file:
//
//	ignore_failures: true
//	ids:
//	  document:
//	    5: 99
type mappingFile struct {
	IgnoreFailures bool                        `yaml:"ignore_failures"`
	IDs            map[string]map[int64]int64 `yaml:"ids"`
}

// Parse reads a mapping from YAML.
// Returns types.ErrInternalTypeUnknown for unknown element types.
func Parse(data []byte) (*Mapper, error) {
	var f mappingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse id mapping: %w", err)
	}
	mapping := make(types.IDMapping, len(f.IDs))
	for name, ids := range f.IDs {
		t, err := types.ParseElementType(name)
		if err != nil {
			return nil, fmt.Errorf("parse id mapping: %w", err)
		}
		mapping[t] = ids
	}
	return New(mapping, f.IgnoreFailures), nil
}

// LoadFile reads a mapping file.
func LoadFile(path string) (*Mapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read id mapping: %w", err)
	}
	return Parse(data)
}

// Override returns a mapper with the same table and the given failure
// tolerance. Recorded failures are not carried over.
func (m *Mapper) Override(ignoreFailures bool) *Mapper {
	return New(m.mapping, ignoreFailures)
}

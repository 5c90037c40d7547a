// Package sqlite exposes the SQLite storage backend while keeping its
// implementation internal.
//
// Example:
//
//	backend := sqlite.NewBackend(nil)
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".datafields-db",
//	})
//	defer backend.Detach()
//	elements, err := backend.Elements()
package sqlite

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/datafields/internal/sqlite"
)

// Backend is the SQLite backend. Call Attach before use.
type Backend = sqlite.Backend

// ElementStore resolves references against the stored elements.
type ElementStore = sqlite.ElementStore

// RecordStore holds one link blob per record field.
type RecordStore = sqlite.RecordStore

// StoredLink pairs a link with the record field holding it.
type StoredLink = sqlite.StoredLink

// LinkCodec is the conversion the record store applies to link values.
type LinkCodec = sqlite.LinkCodec

// NewBackend creates a detached backend logging to logger; nil discards.
func NewBackend(logger *zap.Logger) *Backend {
	return sqlite.NewBackend(sqlite.WithLogger(logger))
}

package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

var _ types.Resolver = (*ElementStore)(nil)

// ElementStore holds the elements links reference. It is the resolver the
// link codec validates against.
type ElementStore struct {
	backend *Backend
}

// Get returns the element with the given type and id.
// Returns types.ErrNotFound if it does not exist.
func (s *ElementStore) Get(t types.ElementType, id int64) (*types.ElementRecord, error) {
	if err := checkElementKey(t, id); err != nil {
		return nil, err
	}
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	if !s.backend.attached {
		return nil, types.ErrDetached
	}
	return s.getLocked(t, id)
}

// Resolve implements types.Resolver. Keys that cannot name an element
// resolve to types.ErrNotFound.
func (s *ElementStore) Resolve(t types.ElementType, id int64) (types.Element, error) {
	if checkElementKey(t, id) != nil {
		return nil, types.ErrNotFound
	}
	rec, err := s.Get(t, id)
	if err != nil {
		return nil, err
	}
	return &storedElement{rec: rec, store: s}, nil
}

// Set inserts or replaces an element and its references.
func (s *ElementStore) Set(rec *types.ElementRecord) error {
	if rec == nil {
		return types.ErrInvalidData
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if !s.backend.attached {
		return types.ErrDetached
	}

	tx, err := s.backend.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO elements (element_type, element_id, path) VALUES (?, ?, ?)
		 ON CONFLICT (element_type, element_id) DO UPDATE SET path = excluded.path`,
		string(rec.Type), rec.ID, rec.Path,
	); err != nil {
		return fmt.Errorf("persisting element: %w", err)
	}
	if _, err := tx.Exec(
		"DELETE FROM element_refs WHERE element_type = ? AND element_id = ?",
		string(rec.Type), rec.ID,
	); err != nil {
		return fmt.Errorf("clearing element references: %w", err)
	}
	for i, ref := range rec.Refs {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO element_refs (element_type, element_id, ref_type, ref_id, ordinal) VALUES (?, ?, ?, ?, ?)",
			string(rec.Type), rec.ID, string(ref.Type), ref.ID, i,
		); err != nil {
			return fmt.Errorf("persisting element reference: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing element: %w", err)
	}

	if err := s.persistLocked(); err != nil {
		return fmt.Errorf("persisting %s: %w", elementsJSONL, err)
	}
	return nil
}

// Delete removes an element. References to it held by other elements are
// kept and resolve to nothing.
// Returns types.ErrNotFound if it does not exist.
func (s *ElementStore) Delete(t types.ElementType, id int64) error {
	if err := checkElementKey(t, id); err != nil {
		return err
	}

	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if !s.backend.attached {
		return types.ErrDetached
	}

	tx, err := s.backend.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM element_refs WHERE element_type = ? AND element_id = ?",
		string(t), id,
	); err != nil {
		return fmt.Errorf("deleting element references: %w", err)
	}
	res, err := tx.Exec(
		"DELETE FROM elements WHERE element_type = ? AND element_id = ?",
		string(t), id,
	)
	if err != nil {
		return fmt.Errorf("deleting element: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing element deletion: %w", err)
	}

	if err := s.persistLocked(); err != nil {
		return fmt.Errorf("persisting %s: %w", elementsJSONL, err)
	}
	return nil
}

// Fetch returns the elements of type t ordered by type and id, or every
// element when t is types.ElementTypeNone.
// Returns types.ErrInvalidFilter for an unknown type.
func (s *ElementStore) Fetch(t types.ElementType) ([]*types.ElementRecord, error) {
	if t != types.ElementTypeNone && !types.IsValidElementType(t) {
		return nil, fmt.Errorf("%w: element type %q", types.ErrInvalidFilter, t)
	}
	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	if !s.backend.attached {
		return nil, types.ErrDetached
	}
	return s.fetchLocked(t)
}

func (s *ElementStore) getLocked(t types.ElementType, id int64) (*types.ElementRecord, error) {
	rec := &types.ElementRecord{Type: t, ID: id}
	err := s.backend.db.QueryRow(
		"SELECT path FROM elements WHERE element_type = ? AND element_id = ?",
		string(t), id,
	).Scan(&rec.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting element %s: %w", types.ElementKey(t, id), err)
	}

	rows, err := s.backend.db.Query(
		"SELECT ref_type, ref_id FROM element_refs WHERE element_type = ? AND element_id = ? ORDER BY ordinal",
		string(t), id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting references of %s: %w", types.ElementKey(t, id), err)
	}
	defer rows.Close()
	for rows.Next() {
		var ref types.Dependency
		var refType string
		if err := rows.Scan(&refType, &ref.ID); err != nil {
			return nil, fmt.Errorf("scanning reference: %w", err)
		}
		ref.Type = types.ElementType(refType)
		rec.Refs = append(rec.Refs, ref)
	}
	return rec, rows.Err()
}

func (s *ElementStore) fetchLocked(t types.ElementType) ([]*types.ElementRecord, error) {
	query := "SELECT element_type, element_id, path FROM elements"
	refQuery := "SELECT element_type, element_id, ref_type, ref_id FROM element_refs"
	var args []any
	if t != types.ElementTypeNone {
		query += " WHERE element_type = ?"
		refQuery += " WHERE element_type = ?"
		args = append(args, string(t))
	}
	query += " ORDER BY element_type, element_id"
	refQuery += " ORDER BY element_type, element_id, ordinal"

	rows, err := s.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying elements: %w", err)
	}
	var out []*types.ElementRecord
	byKey := make(map[string]*types.ElementRecord)
	for rows.Next() {
		rec := &types.ElementRecord{}
		var et string
		if err := rows.Scan(&et, &rec.ID, &rec.Path); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning element: %w", err)
		}
		rec.Type = types.ElementType(et)
		out = append(out, rec)
		byKey[types.ElementKey(rec.Type, rec.ID)] = rec
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating elements: %w", err)
	}

	refRows, err := s.backend.db.Query(refQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying element references: %w", err)
	}
	defer refRows.Close()
	for refRows.Next() {
		var et, rt string
		var id, refID int64
		if err := refRows.Scan(&et, &id, &rt, &refID); err != nil {
			return nil, fmt.Errorf("scanning element reference: %w", err)
		}
		if rec, ok := byKey[types.ElementKey(types.ElementType(et), id)]; ok {
			rec.Refs = append(rec.Refs, types.Dependency{ID: refID, Type: types.ElementType(rt)})
		}
	}
	return out, refRows.Err()
}

// persistLocked rewrites elements.jsonl from the database.
func (s *ElementStore) persistLocked() error {
	recs, err := s.fetchLocked(types.ElementTypeNone)
	if err != nil {
		return err
	}
	lines := make([]elementJSON, 0, len(recs))
	for _, r := range recs {
		lines = append(lines, elementToJSON(r))
	}
	records, err := marshalRecords(lines)
	if err != nil {
		return err
	}
	return writeJSONL(s.backend.jsonlPath(elementsJSONL), records)
}

func checkElementKey(t types.ElementType, id int64) error {
	if !types.IsValidElementType(t) {
		return fmt.Errorf("%w: %q", types.ErrInternalTypeUnknown, t)
	}
	if id <= 0 {
		return fmt.Errorf("%w: %d", types.ErrInvalidID, id)
	}
	return nil
}

// storedElement adapts an element record to types.Element.
type storedElement struct {
	rec   *types.ElementRecord
	store *ElementStore
}

func (e *storedElement) ID() int64               { return e.rec.ID }
func (e *storedElement) Type() types.ElementType { return e.rec.Type }
func (e *storedElement) FullPath() string        { return e.rec.Path }
func (e *storedElement) CacheTag() string        { return types.ElementKey(e.rec.Type, e.rec.ID) }

// CollectCacheTags adds this element's tag and walks its references.
// References to missing elements contribute nothing.
func (e *storedElement) CollectCacheTags(tags map[string]bool) map[string]bool {
	if tags == nil {
		tags = make(map[string]bool)
	}
	tags[e.CacheTag()] = true
	for _, ref := range e.rec.Refs {
		if tags[types.ElementKey(ref.Type, ref.ID)] {
			continue
		}
		next, err := e.store.Resolve(ref.Type, ref.ID)
		if err != nil {
			continue
		}
		tags = next.CollectCacheTags(tags)
	}
	return tags
}

package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

// LinkCodec converts link values to and from their stored columns.
type LinkCodec interface {
	EncodeForStorage(l *types.Link) ([]byte, error)
	EncodeForQuery(l *types.Link) ([]byte, error)
	DecodeFromStorage(data []byte, owner types.Owner) (*types.Link, error)
}

// StoredLink is a link value together with the record field holding it.
type StoredLink struct {
	Owner types.Owner
	Link  *types.Link
}

// RecordStore is the object store: one link blob per record, field and
// language.
type RecordStore struct {
	backend *Backend
	codec   LinkCodec
}

// SaveLink stores l in the field named by owner and returns the owner. A
// missing record id is generated. A value that encodes to nothing clears
// the field.
// Returns types.ErrInvalidField when owner has no field name.
func (s *RecordStore) SaveLink(owner types.Owner, l *types.Link) (types.Owner, error) {
	if owner.FieldName == "" {
		return owner, types.ErrInvalidField
	}
	if owner.RecordID == "" {
		owner.RecordID = newRecordID()
	}
	row, err := s.encode(owner, l)
	if err != nil {
		return owner, err
	}

	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if !s.backend.attached {
		return owner, types.ErrDetached
	}

	tx, err := s.backend.db.Begin()
	if err != nil {
		return owner, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := writeRecordLink(tx, owner, row); err != nil {
		return owner, err
	}
	if err := tx.Commit(); err != nil {
		return owner, fmt.Errorf("committing link: %w", err)
	}
	if err := s.persistLocked(); err != nil {
		return owner, fmt.Errorf("persisting %s: %w", recordLinksJSONL, err)
	}
	return owner, nil
}

// SaveLinks stores several values in one transaction and one JSONL
// rewrite. Every owner must carry a record id and a field name.
func (s *RecordStore) SaveLinks(links []StoredLink) error {
	rows := make([]*encodedLink, len(links))
	for i, sl := range links {
		if sl.Owner.RecordID == "" {
			return fmt.Errorf("%w: missing record id", types.ErrInvalidID)
		}
		if sl.Owner.FieldName == "" {
			return types.ErrInvalidField
		}
		row, err := s.encode(sl.Owner, sl.Link)
		if err != nil {
			return err
		}
		rows[i] = row
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

	for i, sl := range links {
		if err := writeRecordLink(tx, sl.Owner, rows[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing links: %w", err)
	}
	if err := s.persistLocked(); err != nil {
		return fmt.Errorf("persisting %s: %w", recordLinksJSONL, err)
	}
	return nil
}

// LoadLink returns the value stored in the field named by owner, with the
// owner attached.
// Returns types.ErrNotFound if the field holds nothing.
func (s *RecordStore) LoadLink(owner types.Owner) (*types.Link, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}

	s.backend.mu.RLock()
	var data []byte
	err := func() error {
		if !s.backend.attached {
			return types.ErrDetached
		}
		return s.backend.db.QueryRow(
			"SELECT data FROM record_links WHERE record_id = ? AND field_name = ? AND language = ?",
			owner.RecordID, owner.FieldName, owner.Language,
		).Scan(&data)
	}()
	s.backend.mu.RUnlock()

	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	// Decoding resolves references through the element store, which takes
	// the backend lock itself.
	return s.codec.DecodeFromStorage(data, owner)
}

// DeleteLink clears the field named by owner.
// Returns types.ErrNotFound if the field holds nothing.
func (s *RecordStore) DeleteLink(owner types.Owner) error {
	if err := checkOwner(owner); err != nil {
		return err
	}

	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if !s.backend.attached {
		return types.ErrDetached
	}

	res, err := s.backend.db.Exec(
		"DELETE FROM record_links WHERE record_id = ? AND field_name = ? AND language = ?",
		owner.RecordID, owner.FieldName, owner.Language,
	)
	if err != nil {
		return fmt.Errorf("deleting link: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}
	if err := s.persistLocked(); err != nil {
		return fmt.Errorf("persisting %s: %w", recordLinksJSONL, err)
	}
	return nil
}

// FetchLinks returns the values stored for recordID, or for every record
// when recordID is empty, ordered by record, field and language. Rows whose
// blob cannot be decoded are logged and skipped.
func (s *RecordStore) FetchLinks(recordID string) ([]StoredLink, error) {
	s.backend.mu.RLock()
	var rows []recordLinkJSON
	err := func() error {
		if !s.backend.attached {
			return types.ErrDetached
		}
		var err error
		rows, err = s.selectLocked(recordID)
		return err
	}()
	s.backend.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	out := make([]StoredLink, 0, len(rows))
	for _, r := range rows {
		owner := types.Owner{RecordID: r.RecordID, FieldName: r.FieldName, Language: r.Language}
		l, err := s.codec.DecodeFromStorage(r.Data, owner)
		if err != nil {
			s.backend.logger.Warn("skipping undecodable link",
				zap.String("owner", ownerKey(owner)),
				zap.Error(err),
			)
			continue
		}
		out = append(out, StoredLink{Owner: owner, Link: l})
	}
	return out, nil
}

// SearchQuery returns the owners whose query column contains term.
// Returns types.ErrInvalidFilter for an empty term.
func (s *RecordStore) SearchQuery(term string) ([]types.Owner, error) {
	if term == "" {
		return nil, fmt.Errorf("%w: empty search term", types.ErrInvalidFilter)
	}

	s.backend.mu.RLock()
	defer s.backend.mu.RUnlock()
	if !s.backend.attached {
		return nil, types.ErrDetached
	}

	rows, err := s.backend.db.Query(
		`SELECT record_id, field_name, language FROM record_links
		 WHERE instr(query, ?) > 0
		 ORDER BY record_id, field_name, language`,
		term,
	)
	if err != nil {
		return nil, fmt.Errorf("searching links: %w", err)
	}
	defer rows.Close()

	var out []types.Owner
	for rows.Next() {
		var o types.Owner
		if err := rows.Scan(&o.RecordID, &o.FieldName, &o.Language); err != nil {
			return nil, fmt.Errorf("scanning owner: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// encodedLink holds the stored columns of one value; nil clears the field.
type encodedLink struct {
	data  []byte
	query []byte
}

func (s *RecordStore) encode(owner types.Owner, l *types.Link) (*encodedLink, error) {
	data, err := s.codec.EncodeForStorage(l)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", ownerKey(owner), err)
	}
	if data == nil {
		return nil, nil
	}
	query, err := s.codec.EncodeForQuery(l)
	if err != nil {
		return nil, fmt.Errorf("encoding query column of %s: %w", ownerKey(owner), err)
	}
	return &encodedLink{data: data, query: query}, nil
}

func writeRecordLink(tx *sql.Tx, owner types.Owner, row *encodedLink) error {
	if row == nil {
		if _, err := tx.Exec(
			"DELETE FROM record_links WHERE record_id = ? AND field_name = ? AND language = ?",
			owner.RecordID, owner.FieldName, owner.Language,
		); err != nil {
			return fmt.Errorf("clearing link: %w", err)
		}
		return nil
	}
	if _, err := tx.Exec(
		`INSERT INTO record_links (record_id, field_name, language, data, query) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (record_id, field_name, language) DO UPDATE SET data = excluded.data, query = excluded.query`,
		owner.RecordID, owner.FieldName, owner.Language, row.data, string(row.query),
	); err != nil {
		return fmt.Errorf("persisting link: %w", err)
	}
	return nil
}

func (s *RecordStore) selectLocked(recordID string) ([]recordLinkJSON, error) {
	query := "SELECT record_id, field_name, language, data, query FROM record_links"
	var args []any
	if recordID != "" {
		query += " WHERE record_id = ?"
		args = append(args, recordID)
	}
	query += " ORDER BY record_id, field_name, language"

	rows, err := s.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	var out []recordLinkJSON
	for rows.Next() {
		var r recordLinkJSON
		if err := rows.Scan(&r.RecordID, &r.FieldName, &r.Language, &r.Data, &r.Query); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// persistLocked rewrites record_links.jsonl from the database.
func (s *RecordStore) persistLocked() error {
	rows, err := s.selectLocked("")
	if err != nil {
		return err
	}
	records, err := marshalRecords(rows)
	if err != nil {
		return err
	}
	return writeJSONL(s.backend.jsonlPath(recordLinksJSONL), records)
}

func checkOwner(o types.Owner) error {
	if o.RecordID == "" {
		return fmt.Errorf("%w: missing record id", types.ErrInvalidID)
	}
	if o.FieldName == "" {
		return types.ErrInvalidField
	}
	return nil
}

func ownerKey(o types.Owner) string {
	if o.Language == "" {
		return o.RecordID + "/" + o.FieldName
	}
	return o.RecordID + "/" + o.FieldName + "/" + o.Language
}

package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"

	json "github.com/goccy/go-json"
)

type loadCounts struct {
	elements    int
	recordLinks int
	skipped     int
}

// loadAllJSONL inserts the JSONL records of dataDir into the database in
// one transaction: either every file loads or the database stays empty.
// Malformed records and records violating table constraints are skipped;
// unknown fields are ignored.
func loadAllJSONL(db *sql.DB, dataDir string) (loadCounts, error) {
	var counts loadCounts

	tx, err := db.Begin()
	if err != nil {
		return counts, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	elements, err := readJSONL(filepath.Join(dataDir, elementsJSONL))
	if err != nil {
		return counts, err
	}
	for _, rec := range elements {
		var e elementJSON
		if err := json.Unmarshal(rec, &e); err != nil || e.record().Validate() != nil || insertElement(tx, e) != nil {
			counts.skipped++
			continue
		}
		counts.elements++
	}

	links, err := readJSONL(filepath.Join(dataDir, recordLinksJSONL))
	if err != nil {
		return counts, err
	}
	for _, rec := range links {
		var rl recordLinkJSON
		if err := json.Unmarshal(rec, &rl); err != nil || !rl.valid() || insertRecordLink(tx, rl) != nil {
			counts.skipped++
			continue
		}
		counts.recordLinks++
	}

	if err := tx.Commit(); err != nil {
		return counts, fmt.Errorf("committing load transaction: %w", err)
	}
	return counts, nil
}

// insertElement inserts an element and its references. A savepoint keeps
// a failed element from leaving partial rows behind.
func insertElement(tx *sql.Tx, e elementJSON) error {
	if _, err := tx.Exec("SAVEPOINT element"); err != nil {
		return err
	}
	err := writeElementRows(tx, e)
	if err != nil {
		_, _ = tx.Exec("ROLLBACK TO element")
	}
	_, _ = tx.Exec("RELEASE element")
	return err
}

func writeElementRows(tx *sql.Tx, e elementJSON) error {
	if _, err := tx.Exec(
		"INSERT INTO elements (element_type, element_id, path) VALUES (?, ?, ?)",
		e.ElementType, e.ElementID, e.Path,
	); err != nil {
		return err
	}
	for i, ref := range e.Refs {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO element_refs (element_type, element_id, ref_type, ref_id, ordinal) VALUES (?, ?, ?, ?, ?)",
			e.ElementType, e.ElementID, string(ref.Type), ref.ID, i,
		); err != nil {
			return err
		}
	}
	return nil
}

func insertRecordLink(tx *sql.Tx, rl recordLinkJSON) error {
	_, err := tx.Exec(
		"INSERT INTO record_links (record_id, field_name, language, data, query) VALUES (?, ?, ?, ?, ?)",
		rl.RecordID, rl.FieldName, rl.Language, rl.Data, string(rl.Query),
	)
	return err
}

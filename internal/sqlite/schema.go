package sqlite

import (
	"database/sql"
	"fmt"
)

// Schema DDL.
const (
	createElements = `CREATE TABLE elements (
    element_type TEXT NOT NULL,
    element_id INTEGER NOT NULL,
    path TEXT NOT NULL,
    PRIMARY KEY (element_type, element_id)
);`

	createElementRefs = `CREATE TABLE element_refs (
    element_type TEXT NOT NULL,
    element_id INTEGER NOT NULL,
    ref_type TEXT NOT NULL,
    ref_id INTEGER NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (element_type, element_id, ref_type, ref_id),
    FOREIGN KEY (element_type, element_id) REFERENCES elements(element_type, element_id) ON DELETE CASCADE
);`

	createRecordLinks = `CREATE TABLE record_links (
    record_id TEXT NOT NULL,
    field_name TEXT NOT NULL,
    language TEXT NOT NULL DEFAULT '',
    data BLOB NOT NULL,
    query TEXT NOT NULL,
    PRIMARY KEY (record_id, field_name, language)
);`
)

// Index DDL.
const (
	idxElementRefsTarget = `CREATE INDEX idx_element_refs_target ON element_refs(ref_type, ref_id);`
	idxRecordLinksRecord = `CREATE INDEX idx_record_links_record ON record_links(record_id);`
)

var schemaDDL = []string{
	createElements,
	createElementRefs,
	createRecordLinks,
}

var indexDDL = []string{
	idxElementRefsTarget,
	idxRecordLinksRecord,
}

func createSchema(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	for _, stmt := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

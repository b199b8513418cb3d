package sqlite

import (
	"database/sql"
	"fmt"
)

// Schema DDL. Column names match the JSONL field names so the loader can
// map records to rows by name.
const (
	createLocations = `CREATE TABLE locations (
    location_id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    grid_rows INTEGER NOT NULL,
    grid_cols INTEGER NOT NULL,
    scheme TEXT NOT NULL,
    capacity INTEGER NOT NULL,
    default_direction TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createContainers = `CREATE TABLE containers (
    container_id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    sample_count INTEGER NOT NULL,
    location_id TEXT,
    position INTEGER,
    scanned_label TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxContainersLocation = `CREATE INDEX idx_containers_location ON containers(location_id, position);`
	idxContainersKind     = `CREATE INDEX idx_containers_kind ON containers(kind);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createLocations,
	createContainers,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxContainersLocation,
	idxContainersKind,
}

// createSchema executes every table and index statement.
func createSchema(db *sql.DB) error {
	for _, stmt := range append(append([]string(nil), schemaDDL...), indexDDL...) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

package snapshot

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "atoms: snapshot of nodes and links",
		SQL: `
CREATE TABLE atoms (
    id          INTEGER PRIMARY KEY,
    entity      TEXT NOT NULL CHECK (entity IN ('node', 'link')),
    kind        TEXT NOT NULL,
    name        TEXT,
    outgoing    TEXT,

    sti         REAL NOT NULL DEFAULT 0,
    lti         REAL NOT NULL DEFAULT 0,
    vlti        REAL NOT NULL DEFAULT 0,

    strength    REAL NOT NULL DEFAULT 0,
    confidence  REAL NOT NULL DEFAULT 0,

    saved_at    INTEGER NOT NULL
);

CREATE INDEX idx_atoms_entity ON atoms(entity);
CREATE INDEX idx_atoms_name   ON atoms(name);
`,
	},
	{
		Version:     2,
		Description: "audit_log: mutation trail fed by store hooks",
		SQL: `
CREATE TABLE audit_log (
    id          TEXT PRIMARY KEY,
    entity      TEXT NOT NULL CHECK (entity IN ('node', 'link')),
    atom_id     INTEGER NOT NULL,
    action      TEXT NOT NULL CHECK (action IN ('add', 'update', 'remove')),
    reason      TEXT CHECK (reason IN ('user', 'eviction')),
    created_at  INTEGER NOT NULL
);

CREATE INDEX idx_audit_atom    ON audit_log(atom_id);
CREATE INDEX idx_audit_created ON audit_log(created_at DESC);
`,
	},
}

func (db *DB) migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}

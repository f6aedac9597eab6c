// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikibrowser Contributors

package mirror

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	wberr "github.com/douglasArantes/wikibrowser-service/pkg/errors"
)

// SQLiteMirror persists items and relationships in a local SQLite database.
// Suitable for development and single-node deployments.
type SQLiteMirror struct {
	db *sql.DB
}

var _ GraphMirror = (*SQLiteMirror)(nil)

// NewSQLiteMirror opens (or creates) the mirror database at dbPath and
// initialises the items and relationships tables.
func NewSQLiteMirror(dbPath string) (*SQLiteMirror, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, wberr.Wrap(err, wberr.CodeMirrorConnectFailure, "opening mirror db")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, wberr.Wrap(err, wberr.CodeMirrorConnectFailure, "pinging mirror db")
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, wberr.Wrap(err, wberr.CodeMirrorConnectFailure, "migrating mirror db")
	}

	return &SQLiteMirror{db: db}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS items (
	item_id TEXT PRIMARY KEY,
	label   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS relationships (
	from_id    TEXT NOT NULL,
	to_id      TEXT NOT NULL,
	prop_id    TEXT NOT NULL,
	prop_label TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (from_id, to_id, prop_id)
);

CREATE INDEX IF NOT EXISTS idx_relationships_from ON relationships(from_id);
CREATE INDEX IF NOT EXISTS idx_relationships_to   ON relationships(to_id);
`
	_, err := db.Exec(ddl)
	return err
}

// AddItem upserts an item row, refreshing its label.
func (m *SQLiteMirror) AddItem(ctx context.Context, itemID, label string) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO items (item_id, label) VALUES (?, ?)
		ON CONFLICT(item_id) DO UPDATE SET label = excluded.label`,
		itemID, label)
	return wberr.Wrap(err, wberr.CodeMirrorUpsertFailure, "upserting item",
		wberr.FieldItemID(itemID))
}

// AddRelationship upserts an edge row keyed by (from, to, property).
func (m *SQLiteMirror) AddRelationship(ctx context.Context, fromID, toID, propID, propLabel string) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO relationships (from_id, to_id, prop_id, prop_label) VALUES (?, ?, ?, ?)
		ON CONFLICT(from_id, to_id, prop_id) DO UPDATE SET prop_label = excluded.prop_label`,
		fromID, toID, propID, propLabel)
	return wberr.Wrap(err, wberr.CodeMirrorUpsertFailure, "upserting relationship",
		wberr.FieldItemID(fromID), wberr.FieldPropertyID(propID))
}

// CountItems returns the number of item rows. Used by tests and diagnostics.
func (m *SQLiteMirror) CountItems(ctx context.Context) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n)
	return n, err
}

// CountRelationships returns the number of edge rows.
func (m *SQLiteMirror) CountRelationships(ctx context.Context) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM relationships`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (m *SQLiteMirror) Close() error {
	return m.db.Close()
}

// Package store implements the Device Store: durable persistence for Device
// rows and Option-82 association rows, backed by a pure-Go SQLite driver.
//
// Every exported method opens its own short-lived statement against the
// shared *sql.DB connection pool rather than caching rows in memory — two
// successive reads of the same device may observe different state if another
// goroutine just committed a change. That is intentional (see spec.md §4.1)
// and all callers must tolerate it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/liscain-net/liscain/pkg/util"
)

// Store is the Device Store.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS devices (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	identifier   TEXT NOT NULL,
	address      TEXT NOT NULL,
	device_class TEXT NOT NULL,
	device_type  TEXT NOT NULL DEFAULT 'UNKNOWN',
	mac_address  TEXT NOT NULL DEFAULT 'UNKNOWN',
	version      TEXT NOT NULL DEFAULT 'UNKNOWN',
	state        TEXT NOT NULL,
	updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_devices_identifier ON devices(identifier);
CREATE INDEX IF NOT EXISTS idx_devices_mac ON devices(mac_address);

CREATE TABLE IF NOT EXISTS option82_associations (
	id                     INTEGER PRIMARY KEY AUTOINCREMENT,
	upstream_switch_mac    TEXT NOT NULL,
	upstream_port_info     TEXT NOT NULL,
	downstream_switch_mac  TEXT,
	downstream_switch_name TEXT,
	UNIQUE(upstream_switch_mac, upstream_port_info)
);

CREATE INDEX IF NOT EXISTS idx_opt82_downstream_mac ON option82_associations(downstream_switch_mac);
`

// Open opens (creating if needed) the sqlite database at path and ensures
// the schema exists. path may be ":memory:" or a "file::memory:?cache=shared"
// DSN for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Sqlite only tolerates one writer at a time; serialize through a
	// single connection so concurrent CommandQueue workers don't trip
	// "database is locked" errors under the hood.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func wrapNotFound(err error) error {
	if err == sql.ErrNoRows {
		return util.ErrNotFound
	}
	return err
}

// normalizeMAC lowercases a MAC address so lookups are insensitive to the
// case conventions of whatever upstream switch or relay agent reported it.
func normalizeMAC(mac string) string {
	return strings.ToLower(strings.TrimSpace(mac))
}

// normalizePort trims incidental whitespace from a relay-reported port
// description; it is kept distinct from normalizeMAC since port info is
// free-form text, not a value with its own canonical casing.
func normalizePort(port string) string {
	return strings.TrimSpace(port)
}

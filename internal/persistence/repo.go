// Package persistence is the store collaborator (spec.md §6): it survives
// process restarts by snapshotting runtime state (run-mode overrides,
// DHWT force/legionella latches, boiler anticipation state) and replaying
// it at startup. Grounded on the teacher's db package (a sql.DB opened
// once, plain query functions taking it as a parameter), generalized from
// the teacher's normalized zones/devices schema to a single versioned
// blob-per-entity table, since the plant's entities are config-defined
// and only their mutable runtime needs to survive a restart.
package persistence

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Repo wraps the sqlite snapshot database.
type Repo struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures the snapshot table exists.
func Open(path string) (*Repo, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshots (
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		data BLOB NOT NULL,
		saved_at INTEGER NOT NULL,
		PRIMARY KEY (kind, id)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() error { return r.db.Close() }

// Save upserts the serialized snapshot for (kind, id).
func (r *Repo) Save(kind, id string, data []byte, savedAt int64) error {
	_, err := r.db.Exec(`INSERT INTO snapshots (kind, id, data, saved_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at`,
		kind, id, data, savedAt)
	if err != nil {
		return fmt.Errorf("save snapshot %s/%s: %w", kind, id, err)
	}
	return nil
}

// Load retrieves the snapshot for (kind, id); ok is false if none exists.
func (r *Repo) Load(kind, id string) (data []byte, ok bool, err error) {
	err = r.db.QueryRow(`SELECT data FROM snapshots WHERE kind = ? AND id = ?`, kind, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot %s/%s: %w", kind, id, err)
	}
	return data, true, nil
}

// LoadAll retrieves every saved id and blob for kind, for bulk restore at
// startup.
func (r *Repo) LoadAll(kind string) (map[string][]byte, error) {
	rows, err := r.db.Query(`SELECT id, data FROM snapshots WHERE kind = ?`, kind)
	if err != nil {
		return nil, fmt.Errorf("load snapshots %s: %w", kind, err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		out[id] = data
	}
	return out, rows.Err()
}

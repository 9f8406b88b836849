package pubindex

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"
)

// Manifest is the SQLite-backed record of the last successful build: one
// content hash per source file plus the time the build finished. It lets a
// build skip post-build tasks when nothing changed.
type Manifest struct {
	db *sql.DB
}

// Hashes maps a scope ("posts", "notes", "config") to file name -> hash.
type Hashes map[string]map[string]string

// OpenManifest opens (or creates) the manifest database at path, ensures
// the directory exists, and runs schema migrations.
func OpenManifest(path string) (*Manifest, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A build is a single writer; WAL plus a busy timeout keeps a concurrent
	// preview rebuild from failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(1)
	m := &Manifest{db: db}
	if err := m.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

// Close closes the underlying database connection.
func (m *Manifest) Close() error {
	return m.db.Close()
}

func (m *Manifest) ensureSchema() error {
	_, err := m.db.Exec(`
CREATE TABLE IF NOT EXISTS files (
    scope TEXT NOT NULL,
    name TEXT NOT NULL,
    hash TEXT NOT NULL,
    PRIMARY KEY (scope, name)
);
CREATE TABLE IF NOT EXISTS builds (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    finished_at INTEGER NOT NULL
);
`)
	return err
}

// LastBuild returns when the last recorded build finished, or the zero time.
func (m *Manifest) LastBuild() (time.Time, error) {
	var unix int64
	err := m.db.QueryRow(`SELECT finished_at FROM builds WHERE id = 1`).Scan(&unix)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, unix), nil
}

// Load returns every recorded hash grouped by scope.
func (m *Manifest) Load() (Hashes, error) {
	rows, err := m.db.Query(`SELECT scope, name, hash FROM files`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(Hashes)
	for rows.Next() {
		var scope, name, hash string
		if err := rows.Scan(&scope, &name, &hash); err != nil {
			return nil, err
		}
		if out[scope] == nil {
			out[scope] = make(map[string]string)
		}
		out[scope][name] = hash
	}
	return out, rows.Err()
}

// Matches reports whether current is exactly the recorded set: same scopes,
// same files, same hashes.
func (m *Manifest) Matches(current Hashes) (bool, error) {
	recorded, err := m.Load()
	if err != nil {
		return false, err
	}
	for scope, files := range current {
		if len(files) != len(recorded[scope]) {
			return false, nil
		}
		for name, hash := range files {
			if recorded[scope][name] != hash {
				return false, nil
			}
		}
	}
	for scope, files := range recorded {
		if len(files) > 0 && len(current[scope]) == 0 {
			return false, nil
		}
	}
	return true, nil
}

// Record replaces the manifest with current and stamps the build time.
func (m *Manifest) Record(current Hashes, at time.Time) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM files`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO files (scope, name, hash) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for scope, files := range current {
		for name, hash := range files {
			if _, err := stmt.Exec(scope, name, hash); err != nil {
				return fmt.Errorf("record %s/%s: %w", scope, name, err)
			}
		}
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO builds (id, finished_at) VALUES (1, ?)`, at.UnixNano()); err != nil {
		return err
	}
	return tx.Commit()
}

// HashFiles returns the BLAKE3 hex digest of each named file in dir.
func HashFiles(dir string, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out[name] = HashBytes(data)
	}
	return out, nil
}

// HashBytes returns the BLAKE3 hex digest of data.
func HashBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

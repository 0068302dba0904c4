package session

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
PRAGMA encoding = 'UTF-8';

CREATE TABLE IF NOT EXISTS session_values (
  session_id TEXT NOT NULL,
  key        TEXT NOT NULL,
  value      TEXT NOT NULL,
  updated_at TIMESTAMP NOT NULL DEFAULT (STRFTIME('%Y-%m-%d %H:%M:%f', 'NOW')),
  PRIMARY KEY (session_id, key)
);`

// sqliteTimeLayout matches STRFTIME('%Y-%m-%d %H:%M:%f').
const sqliteTimeLayout = "2006-01-02 15:04:05.000"

// SQLiteRegistry keeps every session in one sqlite database.
type SQLiteRegistry struct {
	db *sqlx.DB
}

func OpenSQLite(path string) (*SQLiteRegistry, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", path, err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY between them.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: schema: %w", err)
	}
	return &SQLiteRegistry{db: db}, nil
}

func (r *SQLiteRegistry) Open(id string) (Store, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	return &SQLite{db: r.db, id: id}, nil
}

type sessionRow struct {
	ID      string `db:"session_id"`
	Keys    int    `db:"keys"`
	Updated string `db:"updated"`
}

func (r *SQLiteRegistry) List() ([]Info, error) {
	var rows []sessionRow
	err := r.db.Select(&rows, `
SELECT session_id, COUNT(*) AS keys, MAX(updated_at) AS updated
FROM session_values
GROUP BY session_id`)
	if err != nil {
		return nil, err
	}
	infos := make([]Info, 0, len(rows))
	for _, row := range rows {
		updated, err := time.Parse(sqliteTimeLayout, row.Updated)
		if err != nil {
			return nil, fmt.Errorf("session: %s updated_at %q: %w", row.ID, row.Updated, err)
		}
		infos = append(infos, Info{ID: row.ID, Keys: row.Keys, Updated: updated})
	}
	sortInfos(infos)
	return infos, nil
}

func (r *SQLiteRegistry) End(id string) error {
	_, err := r.db.Exec(`DELETE FROM session_values WHERE session_id = ?`, id)
	return err
}

func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}

// SQLite is one session's view of the shared database.
type SQLite struct {
	db *sqlx.DB
	id string
}

func (s *SQLite) Get(key string) (string, bool, error) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM session_values WHERE session_id = ? AND key = ?`, s.id, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLite) Set(key, value string) error {
	_, err := s.db.Exec(`
INSERT OR REPLACE INTO session_values (session_id, key, value, updated_at)
VALUES (?, ?, ?, STRFTIME('%Y-%m-%d %H:%M:%f', 'NOW'))`, s.id, key, value)
	return err
}

func (s *SQLite) Remove(key string) error {
	_, err := s.db.Exec(`DELETE FROM session_values WHERE session_id = ? AND key = ?`, s.id, key)
	return err
}

type keyValue struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

func (s *SQLite) Snapshot() (map[string]string, error) {
	var rows []keyValue
	if err := s.db.Select(&rows, `SELECT key, value FROM session_values WHERE session_id = ?`, s.id); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Close is a no-op; the registry owns the database handle.
func (s *SQLite) Close() error { return nil }

// Package params is the device's categorized persistent key-value store.
//
// Every key is declared in Keys with the lifecycle categories that clear it.
// Values are opaque bytes; booleans are stored as "1" and "0".
package params

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

// ErrUnknownKey is returned for keys missing from the key table.
var ErrUnknownKey = errors.New("unknown param key")

// Store is a sqlite-backed params store. It is safe for concurrent use and
// may be shared with other processes opening the same file.
type Store struct {
	db   *sql.DB
	keys map[string]Category
}

// Option configures a Store.
type Option func(*Store)

// WithKeys replaces the key table. Used by tests.
func WithKeys(keys map[string]Category) Option {
	return func(s *Store) {
		s.keys = keys
	}
}

// Open opens (creating if needed) the params database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create params directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open params db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set params journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set params busy timeout: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS params (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	category INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize params schema: %w", err)
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS boots (
	id TEXT PRIMARY KEY,
	booted_at TEXT NOT NULL,
	record TEXT NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize boots schema: %w", err)
	}

	s := &Store{db: db, keys: Keys}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) category(key string) (Category, error) {
	c, ok := s.keys[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return c, nil
}

// Get returns the value of key. The bool is false when the key is unset.
func (s *Store) Get(key string) ([]byte, bool, error) {
	if _, err := s.category(key); err != nil {
		return nil, false, err
	}
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM params WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get param %q: %w", key, err)
	}
	return value, true, nil
}

// GetString is Get for text values; unset keys read as "".
func (s *Store) GetString(key string) (string, error) {
	v, _, err := s.Get(key)
	return string(v), err
}

// GetBool reports whether key holds "1". Unset keys and read errors are false.
func (s *Store) GetBool(key string) bool {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return false
	}
	return string(v) == "1"
}

// Put writes value under key.
func (s *Store) Put(key string, value []byte) error {
	c, err := s.category(key)
	if err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	_, err = s.db.Exec(
		`INSERT INTO params (key, value, category, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		 value = excluded.value,
		 category = excluded.category,
		 updated_at = excluded.updated_at`,
		key,
		value,
		int(c),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put param %q: %w", key, err)
	}
	return nil
}

func (s *Store) PutString(key, value string) error {
	return s.Put(key, []byte(value))
}

func (s *Store) PutBool(key string, value bool) error {
	if value {
		return s.Put(key, []byte("1"))
	}
	return s.Put(key, []byte("0"))
}

// Delete removes key. Removing an unset key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.category(key); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM params WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete param %q: %w", key, err)
	}
	return nil
}

// ClearAll removes every key tagged with category c and no other key.
func (s *Store) ClearAll(c Category) error {
	if c == Persistent {
		return fmt.Errorf("clear params: persistent keys cannot be cleared")
	}
	if _, err := s.db.Exec(`DELETE FROM params WHERE (category & ?) != 0`, int(c)); err != nil {
		return fmt.Errorf("clear params %s: %w", c, err)
	}
	return nil
}

// Keys returns the keys that currently hold a value, sorted.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM params`)
	if err != nil {
		return nil, fmt.Errorf("list params: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan param row: %w", err)
		}
		out = append(out, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate param rows: %w", err)
	}
	sort.Strings(out)
	return out, nil
}

// RecordBoot appends a boot record and mirrors its id into LastBootRecord.
func (s *Store) RecordBoot(id string, at time.Time, record string) error {
	if _, err := s.db.Exec(
		`INSERT INTO boots (id, booted_at, record) VALUES (?, ?, ?)`,
		id, at.UTC().Format(time.RFC3339Nano), record,
	); err != nil {
		return fmt.Errorf("record boot: %w", err)
	}
	return s.PutString(LastBootRecord, id)
}

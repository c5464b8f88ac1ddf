package kvstore

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps all keys in a single kv table inside <root>/emotic.db.
type SQLiteStore struct {
	Root   string
	dbPath string

	mu    sync.Mutex
	db    *sql.DB
	once  sync.Once
	err   error
	quota int
}

// NewSQLiteStore opens (or creates) the sqlite-backed store under root.
// quota <= 0 means unlimited.
func NewSQLiteStore(root string, quota int) (*SQLiteStore, error) {
	if strings.TrimSpace(root) == "" {
		root = DefaultStorageRoot()
	}
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	st := &SQLiteStore{
		Root:   root,
		dbPath: filepath.Join(root, "emotic.db"),
		quota:  quota,
	}
	// Initialize eagerly so callers fail fast.
	if err := st.init(); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *SQLiteStore) init() error {
	s.once.Do(func() {
		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			s.err = err
			return
		}
		// Keep sqlite responsive under contention.
		_, _ = db.Exec("PRAGMA busy_timeout = 5000;")
		_, _ = db.Exec("PRAGMA journal_mode = WAL;")
		_, _ = db.Exec("PRAGMA synchronous = NORMAL;")

		if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`); err != nil {
			s.err = err
			_ = db.Close()
			return
		}
		s.db = db
	})
	return s.err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return "", false
	}
	var v string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if err != nil {
		return "", false
	}
	return v, true
}

func (s *SQLiteStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return errors.New("kvstore: sqlite store closed")
	}
	if s.quota > 0 {
		var total sql.NullInt64
		err := s.db.QueryRow(
			"SELECT SUM(LENGTH(key) + LENGTH(value)) FROM kv WHERE key != ?", key,
		).Scan(&total)
		if err != nil {
			return err
		}
		if int(total.Int64)+len(key)+len(value) > s.quota {
			return ErrQuotaExceeded
		}
	}
	_, err := s.db.Exec(
		"INSERT INTO kv(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func (s *SQLiteStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return
	}
	_, _ = s.db.Exec("DELETE FROM kv WHERE key = ?", key)
}

func (s *SQLiteStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	rows, err := s.db.Query("SELECT key FROM kv")
	if err != nil {
		return nil
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

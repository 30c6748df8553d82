package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/dfryer1193/spacetraveling/shared/db"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory page store.
const MemoryPath = ":memory:"

var ErrAlreadyConnected = errors.New("page store already connected")

// filePragmas tune an on-disk page store: pages are written by background
// regeneration while requests read them.
var filePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
}

// SQLiteDB holds generated pages in a single SQLite file.
type SQLiteDB struct {
	path string
	db   *sql.DB
}

var _ db.Database = (*SQLiteDB)(nil)

func NewSQLiteDB(path string) *SQLiteDB {
	return &SQLiteDB{path: path}
}

// Path returns the file the store was opened on.
func (s *SQLiteDB) Path() string {
	return s.path
}

// Connect opens the store and brings its schema up to date.
func (s *SQLiteDB) Connect() error {
	if s.db != nil {
		return ErrAlreadyConnected
	}

	conn, err := open(s.path)
	if err != nil {
		return err
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = conn
	return nil
}

func open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page store %s: %w", path, err)
	}

	pragmas := filePragmas
	if path == MemoryPath {
		// Each connection to :memory: would see its own empty database.
		conn.SetMaxOpenConns(1)
		pragmas = nil
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping page store %s: %w", path, err)
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}

	return conn, nil
}

// Close releases the store. Closing a store that is not connected is a no-op.
func (s *SQLiteDB) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

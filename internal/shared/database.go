package shared

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN is an sqlite DSN for a database that lives only as long as the process.
const MemoryDSN = "file::memory:?cache=shared"

// IsMemoryDSN reports whether path names an sqlite database that is discarded when the process exits.
func IsMemoryDSN(path string) bool {
	return path == "" || path == ":memory:" || strings.Contains(path, "mode=memory") || strings.HasPrefix(path, "file::memory:")
}

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" (or [MemoryDSN]) for an in-memory database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(path string) (*sql.DB, error) {
	if path == "" || path == ":memory:" {
		path = MemoryDSN
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase sets connection pool settings for the database.
// In-memory databases need at least one idle connection or the data disappears with it.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}

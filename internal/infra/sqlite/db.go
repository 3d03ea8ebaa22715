// Package sqlite backs the rate limiter with a SQLite file so several
// processes on one host share per-identity counters.
// Uses modernc.org/sqlite: a pure-Go SQLite driver (no CGO required).
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Register the modernc sqlite driver under the name "sqlite"
	_ "modernc.org/sqlite"
)

const (
	memoryPath = ":memory:"
	// filePoolSize bounds connections per process; writers still serialize
	// on the database lock, so a small pool is enough.
	filePoolSize = 4
)

// connPragmas run in order on every new connection. busy_timeout comes first
// so a concurrent first open waits for the journal_mode switch instead of
// failing with SQLITE_BUSY.
var connPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
}

// NewDB opens (or creates) the counter database at path. The parent
// directory must exist. ":memory:" opens a private database pinned to a
// single connection, for tests.
func NewDB(path string) (*sql.DB, error) {
	if path != memoryPath {
		if dir := filepath.Dir(path); !dirExists(dir) {
			return nil, fmt.Errorf("sqlite.NewDB: parent directory %q does not exist", dir)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite.NewDB: open %q: %w", path, err)
	}

	if path == memoryPath {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(filePoolSize)
		db.SetMaxIdleConns(filePoolSize)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.NewDB: ping %q: %w", path, err)
	}
	return db, nil
}

func dsn(path string) string {
	params := make([]string, len(connPragmas))
	for i, p := range connPragmas {
		params[i] = "_pragma=" + p
	}
	return path + "?" + strings.Join(params, "&")
}

func dirExists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

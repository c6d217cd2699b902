package out

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// OpenDatabase opens (creating if absent) the collection database with
// foreign keys enforced and a busy timeout for the background saver.
func OpenDatabase(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// database/sql pooling plus sqlite write locking: a single connection
	// keeps the in-context transaction and the saver from deadlocking.
	db.SetMaxOpenConns(1)
	return db, nil
}

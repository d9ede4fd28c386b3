package store

import (
	"database/sql"

	"github.com/juju/errors"
	_ "modernc.org/sqlite"
)

// OpenSQLite opens the console's local SQLite file with foreign keys on and a
// busy timeout so the poller and the web handlers do not trip over each other.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Annotatef(err, "open %s", path)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, errors.Annotate(err, "enable foreign keys")
	}
	return db, nil
}

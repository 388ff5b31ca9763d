package sqlrepo

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx"
	_ "modernc.org/sqlite"             // database/sql driver "sqlite"
)

// Open connects to the configured engine and returns the pool together
// with the matching dialect. Supported drivers: "sqlite", "postgres".
func Open(driver, dsn string) (*sql.DB, Dialect, error) {
	switch driver {
	case "sqlite":
		return OpenSQLite(dsn)
	case "postgres":
		return OpenPostgres(dsn)
	default:
		return nil, nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

func OpenSQLite(dsn string) (*sql.DB, Dialect, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}
	// Serialized writes against one file: keep a single connection and
	// let writers wait instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000; PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, SQLiteDialect(), nil
}

func OpenPostgres(dsn string) (*sql.DB, Dialect, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, PostgresDialect(), nil
}

package database

import (
	_ "embed"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// InitDB opens the SQLite database at dataSourceName, enables foreign keys
// and applies the schema. ":memory:" gives a private in-memory database.
func InitDB(dataSourceName string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", withForeignKeys(dataSourceName))
	if err != nil {
		return nil, err
	}

	// One connection: SQLite serialises writers anyway, and an in-memory
	// database only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err = loadSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// loadSchema executes the embedded schema. Every statement is idempotent.
func loadSchema(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

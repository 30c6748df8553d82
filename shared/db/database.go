package db

import (
	"database/sql"
)

// Database is a SQL-backed page store connection. Connect applies the schema;
// DB is only valid between Connect and Close.
type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
}

package datarecording

import (
	"database/sql"
)

// A DataReader reads tables written by a DataRecorder.
type DataReader interface {
	// ListTables returns the names of all tables in the database.
	ListTables() []string

	// Query runs a SQL query against the database.
	Query(query string, args ...any) (*sql.Rows, error)

	// Close closes the reader.
	Close() error
}

type sqliteReader struct {
	*sql.DB
}

// NewReader opens the database that a DataRecorder wrote to the given path.
func NewReader(path string) DataReader {
	db, err := sql.Open("sqlite3", path+".sqlite3")
	if err != nil {
		panic(err)
	}

	return &sqliteReader{DB: db}
}

func (r *sqliteReader) ListTables() []string {
	rows, err := r.DB.Query(
		"SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		panic(err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			panic(err)
		}
		tables = append(tables, name)
	}

	if err := rows.Err(); err != nil {
		panic(err)
	}

	return tables
}

func (r *sqliteReader) Query(query string, args ...any) (*sql.Rows, error) {
	return r.DB.Query(query, args...)
}

func (r *sqliteReader) Close() error {
	return r.DB.Close()
}

package sinks

import (
	"database/sql"
	"fmt"

	"github.com/RIZZZIOM/TinyFlaw/dataset"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// schema is applied once when the store is created
var schema = []string{
	"CREATE TABLE users(id INTEGER PRIMARY KEY AUTOINCREMENT, username TEXT, name TEXT, surname TEXT, password TEXT)",
	"CREATE TABLE comments(id INTEGER PRIMARY KEY AUTOINCREMENT, comment TEXT, time TEXT)",
}

// SQLite is the in-memory store backing the users and comments tables
type SQLite struct {
	db *sql.DB
}

// Rows is the column-ordered result of a query
type Rows struct {
	Columns []string
	Values  [][]interface{}
}

// NewSQLite creates a new in-memory database with the fixture schema
func NewSQLite() (*SQLite, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own database.
	// A single connection keeps one database and serializes statements.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite: %w", err)
	}

	for _, statement := range schema {
		if _, err := db.Exec(statement); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SeedUsers inserts the seed users, letting the engine assign ids
func (s *SQLite) SeedUsers(users []dataset.User) error {
	for i, u := range users {
		_, err := s.db.Exec(
			"INSERT INTO users(id, username, name, surname, password) VALUES(NULL, ?, ?, ?, ?)",
			u.Username, u.Name, u.Surname, u.Password,
		)
		if err != nil {
			return fmt.Errorf("failed to insert user %d: %w", i, err)
		}
	}
	return nil
}

// Query executes a SQL query and returns its rows in column order
// This is intentionally vulnerable - it executes raw SQL
func (s *SQLite) Query(query string) (*Rows, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("SQL error: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := &Rows{Columns: columns}

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, val := range values {
			if b, ok := val.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Values = append(result.Values, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return result, nil
}

// Exec executes a SQL statement (INSERT, UPDATE, DELETE, etc.)
func (s *SQLite) Exec(statement string) error {
	_, err := s.db.Exec(statement)
	if err != nil {
		return fmt.Errorf("SQL error: %w", err)
	}
	return nil
}

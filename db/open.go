// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL backend.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect maps a DATABASE_TYPE value to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "postgres", "postgresql":
		return Postgres, nil
	case "sqlite", "sqlite3", "":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database type %q", s)
}

// sqlitePragmas keep concurrent writers waiting instead of failing, and take
// the write lock at BEGIN so a transaction never has to upgrade.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_txlock=immediate"

// Open connects to the database and verifies the connection.
func Open(dialect Dialect, url string) (*sql.DB, error) {
	var (
		conn *sql.DB
		err  error
	)
	switch dialect {
	case Postgres:
		conn, err = sql.Open("postgres", url)
	case SQLite:
		conn, err = sql.Open("sqlite", sqliteDSN(url))
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == Postgres {
		conn.SetMaxOpenConns(50)
		conn.SetMaxIdleConns(10)
		conn.SetConnMaxLifetime(time.Hour)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

func sqliteDSN(url string) string {
	if strings.Contains(url, "_txlock=") {
		return url
	}
	if !strings.HasPrefix(url, "file:") {
		url = "file:" + url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + sqlitePragmas
}

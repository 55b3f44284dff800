package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	// Import database drivers
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

const (
	pingTimeout     = 5 * time.Second
	pgMaxOpenConns  = 25
	pgMaxIdleConns  = 25
	pgConnMaxLife   = 5 * time.Minute
	sqliteURLPrefix = "sqlite://"
)

// DB wraps a sql.DB connection.
type DB struct {
	conn    *sql.DB
	dialect dialect
}

// NewDB opens a database connection and runs migrations. dsn is a postgres:// or
// postgresql:// URL, a sqlite:// URL, a file path, or ":memory:".
func NewDB(dsn string) (*DB, error) {
	driver, source, d := parseDSN(dsn)

	conn, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if d == dialectSQLite {
		// One connection keeps ":memory:" databases shared and serializes writers.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(pgMaxOpenConns)
		conn.SetMaxIdleConns(pgMaxIdleConns)
		conn.SetConnMaxLifetime(pgConnMaxLife)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{conn: conn, dialect: d}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, nil
}

func parseDSN(dsn string) (driver, source string, d dialect) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "pgx", dsn, dialectPostgres
	case strings.HasPrefix(dsn, sqliteURLPrefix):
		// sqlite:///./expenses.db -> ./expenses.db
		// sqlite:////abs/expenses.db -> /abs/expenses.db
		return "sqlite", sqlitePragmas(strings.TrimPrefix(strings.TrimPrefix(dsn, sqliteURLPrefix), "/")), dialectSQLite
	default:
		return "sqlite", sqlitePragmas(dsn), dialectSQLite
	}
}

// sqlitePragmas appends connection pragmas so every pooled connection gets them.
func sqlitePragmas(source string) string {
	sep := "?"
	if strings.Contains(source, "?") {
		sep = "&"
	}
	return source + sep + "_pragma=foreign_keys(1)"
}

func (db *DB) migrate(ctx context.Context) error {
	migrations := sqliteMigrations
	if db.dialect == dialectPostgres {
		migrations = postgresMigrations
	}

	for _, m := range migrations {
		if _, err := db.conn.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS expense_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT UNIQUE NOT NULL,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		type_id INTEGER NOT NULL REFERENCES expense_types(id),
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		date TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		amount REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses (user_id, date)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS expense_types (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		type_id BIGINT NOT NULL REFERENCES expense_types(id),
		account_id BIGINT NOT NULL REFERENCES accounts(id),
		date TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		amount DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses (user_id, date)`,
}

// rebind rewrites ? placeholders to $n for Postgres.
func (db *DB) rebind(query string) string {
	if db.dialect != dialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

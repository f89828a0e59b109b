// Package sqlstore keeps the catalog, templates, history and session
// snapshots in SQLite or PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrations embed.FS

// Dialect selects the SQL flavor and the database/sql driver.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driver() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// ParseDialect accepts the names used in configuration.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "sqlite", "sqlite3", "":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return "", errors.Newf("unknown sql dialect %q", s)
}

// DB wraps a *sql.DB and provides the repository methods.
type DB struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects and pings the database. It does not migrate.
func Open(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	db, err := sql.Open(dialect.driver(), dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if dialect == SQLite {
		// One writer at a time avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "pinging database")
	}
	return &DB{db: db, dialect: dialect}, nil
}

// New wraps an existing connection. Tests use it with sqlmock.
func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{db: db, dialect: dialect}
}

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate applies every pending embedded migration.
func (d *DB) Migrate() error {
	src, err := iofs.New(migrations, "migrations/"+string(d.dialect))
	if err != nil {
		return errors.Wrap(err, "loading migrations")
	}

	var driver database.Driver
	switch d.dialect {
	case Postgres:
		driver, err = migratepgx.WithInstance(d.db, &migratepgx.Config{})
	default:
		driver, err = migratesqlite.WithInstance(d.db, &migratesqlite.Config{})
	}
	if err != nil {
		return errors.Wrap(err, "creating migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", src, string(d.dialect), driver)
	if err != nil {
		return errors.Wrap(err, "creating migrator")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "running migrations")
	}
	return nil
}

// rebind turns ? placeholders into $n for PostgreSQL.
func (d *DB) rebind(query string) string {
	if d.dialect != Postgres {
		return query
	}
	var b strings.Builder
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

func (d *DB) exec(ctx context.Context, query string, args ...any) error {
	_, err := d.db.ExecContext(ctx, d.rebind(query), args...)
	return err
}

func (d *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, d.rebind(query), args...)
}

func (d *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, d.rebind(query), args...)
}

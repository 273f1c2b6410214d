package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed schema_sqlite.sql schema_postgres.sql
var ddl embed.FS

var ErrEmptyFilter = errors.New("refusing to match every row")

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// DB is the process-wide store handle. One is opened in main and passed down.
type DB struct {
	*sql.DB
	dialect dialect
}

// New opens dsn and creates the schema if needed. postgres:// URLs go
// through pgx, anything else is a SQLite file path.
func New(dsn string, connMaxLifetime time.Duration) (*DB, error) {
	d := &DB{}
	var (
		db  *sql.DB
		err error
	)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		d.dialect = dialectPostgres
		db, err = sql.Open("pgx", dsn)
	} else {
		db, err = sql.Open("sqlite", dsn+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if connMaxLifetime > 0 {
		db.SetConnMaxLifetime(connMaxLifetime)
	}
	d.DB = db

	if err = d.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return d, nil
}

func (d *DB) migrate(ctx context.Context) error {
	name := "schema_sqlite.sql"
	if d.dialect == dialectPostgres {
		name = "schema_postgres.sql"
	}
	b, err := ddl.ReadFile(name)
	if err != nil {
		return err
	}
	for _, stmt := range strings.Split(string(b), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (d *DB) rebind(q string) string {
	if d.dialect != dialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
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

package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/theLastOfCats/series-browser/internal/logging"
)

//go:embed schema.sql
var schemaSQLite string

//go:embed schema_mysql.sql
var schemaMySQL string

const (
	DialectSQLite = "sqlite"
	DialectMySQL  = "mysql"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is a unique or foreign key violation.
	ErrConflict = errors.New("conflict")
)

type DB struct {
	*sql.DB
	dialect string
}

// New opens dsn and applies the embedded schema. A DSN containing '@' is a
// MySQL DSN (user:password@tcp(host:port)/dbname); anything else is a SQLite
// path or URI.
func New(dsn string) (*DB, error) {
	var db *sql.DB
	var err error

	dialect := DialectSQLite
	if strings.Contains(dsn, "@") {
		dialect = DialectMySQL
	}

	if dialect == DialectMySQL {
		db, err = sql.Open("mysql", withMySQLParams(dsn))
	} else {
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}

		if !strings.Contains(dsn, "?") {
			dsn += "?"
		} else {
			dsn += "&"
		}

		// modernc.org/sqlite applies _pragma parameters on every connection
		pragmas := []string{
			"_pragma=foreign_keys(1)",
			"_pragma=journal_mode(WAL)",
			"_pragma=busy_timeout(30000)",
			"_pragma=synchronous(NORMAL)",
		}
		dsn += strings.Join(pragmas, "&")

		db, err = sql.Open("sqlite", dsn)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if dialect == DialectSQLite {
		db.SetMaxOpenConns(25)
	}

	if err := initSchema(db, dialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().Str("dialect", dialect).Msg("database ready")
	return &DB{DB: db, dialect: dialect}, nil
}

func (db *DB) Dialect() string {
	return db.dialect
}

func withMySQLParams(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}

func initSchema(db *sql.DB, dialect string) error {
	schema := schemaSQLite
	if dialect == DialectMySQL {
		schema = schemaMySQL
	}

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%w (statement: %.60s)", err, stmt)
		}
	}

	return nil
}

func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// classify maps driver constraint errors onto ErrConflict.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case 1062, 1451, 1452:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}

	return err
}

package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Supported driver names
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

const (
	connectAttempts = 10
	connectDelay    = 3 * time.Second
)

// Connect opens the database, waits until it answers and creates the schema
func Connect(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite:
		return connectSQLite(ctx, dsn)
	case DriverPostgres, DriverPgx:
		return connectPostgres(ctx, driver, dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func connectSQLite(ctx context.Context, dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		dsn = filepath.Join("data", "phrases.db")
	}
	if !strings.HasPrefix(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.ConnectContext(ctx, DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite doesn't support multiple writers; one connection also keeps
	// an in-memory database alive for the lifetime of the handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initializeSchema(ctx, db, sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func connectPostgres(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		if attempt == connectAttempts {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
		}
		slog.Warn("database not ready, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(connectDelay):
		}
	}

	if err := initializeSchema(ctx, db, postgresSchema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

type schemaStatement struct {
	name string
	sql  string
}

var sqliteSchema = []schemaStatement{
	{"phrases", `
		CREATE TABLE IF NOT EXISTS phrases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			external_phrase_id TEXT NOT NULL UNIQUE,
			original_phrase TEXT NOT NULL,
			original_language TEXT NOT NULL,
			meaning TEXT NOT NULL,
			meaning_language TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'IN_PROGRESS',
			consecutive_correct_answer_amount INTEGER NOT NULL DEFAULT 0,
			owner_user_account_id TEXT NOT NULL,
			insert_date_time TIMESTAMP NOT NULL,
			UNIQUE(original_phrase, owner_user_account_id)
		)`},
	{"tags", `
		CREATE TABLE IF NOT EXISTS tags (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tag_name TEXT NOT NULL,
			owner_user_account_id TEXT NOT NULL,
			UNIQUE(owner_user_account_id, tag_name)
		)`},
	{"phrase_tags", `
		CREATE TABLE IF NOT EXISTS phrase_tags (
			phrase_id INTEGER NOT NULL,
			tag_id INTEGER NOT NULL,
			PRIMARY KEY (phrase_id, tag_id),
			FOREIGN KEY (phrase_id) REFERENCES phrases(id) ON DELETE CASCADE,
			FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
		)`},
	{"phrases owner index", `
		CREATE INDEX IF NOT EXISTS idx_phrases_owner_insert
		ON phrases(owner_user_account_id, insert_date_time)`},
}

var postgresSchema = []schemaStatement{
	{"phrases", `
		CREATE TABLE IF NOT EXISTS phrases (
			id BIGSERIAL PRIMARY KEY,
			external_phrase_id UUID NOT NULL UNIQUE,
			original_phrase TEXT NOT NULL,
			original_language TEXT NOT NULL,
			meaning TEXT NOT NULL,
			meaning_language TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'IN_PROGRESS',
			consecutive_correct_answer_amount INTEGER NOT NULL DEFAULT 0,
			owner_user_account_id UUID NOT NULL,
			insert_date_time TIMESTAMPTZ NOT NULL,
			UNIQUE(original_phrase, owner_user_account_id)
		)`},
	{"tags", `
		CREATE TABLE IF NOT EXISTS tags (
			id BIGSERIAL PRIMARY KEY,
			tag_name TEXT NOT NULL,
			owner_user_account_id UUID NOT NULL,
			UNIQUE(owner_user_account_id, tag_name)
		)`},
	{"phrase_tags", `
		CREATE TABLE IF NOT EXISTS phrase_tags (
			phrase_id BIGINT NOT NULL REFERENCES phrases(id) ON DELETE CASCADE,
			tag_id BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (phrase_id, tag_id)
		)`},
	{"phrases owner index", `
		CREATE INDEX IF NOT EXISTS idx_phrases_owner_insert
		ON phrases(owner_user_account_id, insert_date_time)`},
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(ctx context.Context, db *sqlx.DB, statements []schemaStatement) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt.sql); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}

// isUniqueViolation recognizes unique constraint failures from every supported driver
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// Package db opens the SQLite store that backs the diagnostics journal.
package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// BasePathEnv overrides the directory holding overwatch state.
const BasePathEnv = "OVERWATCH_BASE_PATH"

// DefaultDBPath returns $OVERWATCH_BASE_PATH/overwatch.db, falling back to
// ~/.overwatch/overwatch.db.
func DefaultDBPath() (string, error) {
	if basePath := os.Getenv(BasePathEnv); basePath != "" {
		return filepath.Join(basePath, "overwatch.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, ".overwatch", "overwatch.db"), nil
}

// Open opens or creates the database at dbPath and applies the WAL pragmas.
func Open(ctx context.Context, dbPath string) (*sqlx.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	conn, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	if err := Configure(ctx, conn); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to configure database")
	}
	return conn, nil
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=memory",
	"PRAGMA busy_timeout=2000",
}

// Configure applies the pragmas and limits the pool to one connection.
func Configure(ctx context.Context, conn *sqlx.DB) error {
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			return errors.Wrapf(err, "failed to execute %s", pragma)
		}
	}
	conn.SetMaxIdleConns(1)
	conn.SetMaxOpenConns(1)

	return VerifyConfiguration(ctx, conn)
}

// VerifyConfiguration checks that WAL mode and NORMAL sync are active.
func VerifyConfiguration(ctx context.Context, conn *sqlx.DB) error {
	var journalMode string
	if err := conn.GetContext(ctx, &journalMode, "PRAGMA journal_mode"); err != nil {
		return errors.Wrap(err, "failed to query journal mode")
	}
	if !strings.EqualFold(journalMode, "wal") {
		return errors.Errorf("expected WAL mode, got %s", journalMode)
	}

	var synchronous string
	if err := conn.GetContext(ctx, &synchronous, "PRAGMA synchronous"); err != nil {
		return errors.Wrap(err, "failed to query synchronous mode")
	}
	if synchronous != "1" {
		return errors.Errorf("expected NORMAL synchronous mode, got %s", synchronous)
	}
	return nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/lib/pq"
	"todo-demo/internal/config"
	"todo-demo/pkg/logger"
)

var (
	pool *sql.DB
	once sync.Once
)

// DB returns the global database connection pool (initialized on first use).
// It returns nil when DATABASE_URL is unset or the pool cannot be opened.
func DB(ctx context.Context) *sql.DB {
	once.Do(func() {
		cfg := config.Get()
		if cfg.DatabaseURL == "" {
			logger.Error(ctx, "DATABASE_URL is not set")
			return
		}
		db, err := Open(cfg.DatabaseURL, cfg.DBPoolSize)
		if err != nil {
			logger.Error(ctx, "Failed to open database", "error", err)
			return
		}
		pool = db
		logger.Info(ctx, "Database pool initialized", "max_open", cfg.DBPoolSize)
	})
	return pool
}

// Open opens a postgres pool of the given size.
func Open(url string, poolSize int) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if poolSize > 0 {
		db.SetMaxOpenConns(poolSize)
		db.SetMaxIdleConns(poolSize / 2)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS lists (
	id         BIGSERIAL PRIMARY KEY,
	title      TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS items (
	id         BIGSERIAL PRIMARY KEY,
	list_id    BIGINT      NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
	title      TEXT        NOT NULL,
	priority   TEXT        NOT NULL CHECK (priority IN ('P1','P2','P3')),
	completed  BOOLEAN     NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS items_list_id_idx ON items (list_id);
`

// MigrateOrCreateSchema creates the lists and items tables if they do not exist.
func MigrateOrCreateSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database not available")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Package database owns the Run Ledger's (C10) Postgres connection pool
// lifecycle, separate from internal/runlog's query logic, matching the
// teacher's split between a connection-pool package and a repository
// package.
package database

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/metakb-transform/internal/domain"
)

// DB wraps the pgxpool.Pool with the teacher's logging/health conventions.
type DB struct {
	Pool *pgxpool.Pool
	log  *logrus.Logger
}

// DSN builds a Postgres connection string from the Run Ledger config
// (run_ledger.db_url/db_username/db_password, i.e. the METAKB_RUN_LEDGER_*
// environment variables), merging the username/password into the URL's
// userinfo when a username is provided.
func DSN(cfg domain.RunLedgerConfig) (string, error) {
	u, err := url.Parse(cfg.DBURL)
	if err != nil {
		return "", fmt.Errorf("parsing db url: %w", err)
	}
	if cfg.DBUsername != "" {
		u.User = url.UserPassword(cfg.DBUsername, cfg.DBPassword)
	}
	return u.String(), nil
}

// NewConnection creates a new database connection pool for the run ledger.
func NewConnection(ctx context.Context, cfg domain.RunLedgerConfig, logger *logrus.Logger) (*DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.WithField("db_url", cfg.DBURL).Info("run ledger connection pool established")

	return &DB{Pool: pool, log: logger}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.log.Info("run ledger connection pool closed")
	}
}

// Health checks the database connection health.
func (db *DB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Stats returns connection pool statistics.
func (db *DB) Stats() *pgxpool.Stat {
	return db.Pool.Stat()
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Backend identifies which datastore the service ended up on.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

type Options struct {
	Host            string
	Port            int
	DBName          string
	Username        string
	Password        string
	ConnectTimeout  time.Duration
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type Database struct {
	db      *sql.DB
	backend Backend
	logger  *zap.Logger
}

// New selects the datastore: it probes the configured PostgreSQL primary and
// on any failure opens the local SQLite file instead. The active backend is
// logged and recorded on the handle. An empty Host skips the probe entirely.
func New(ctx context.Context, opts Options, logger *zap.Logger) (*Database, error) {
	if opts.Host != "" {
		db, err := openPostgres(ctx, opts)
		if err == nil {
			logger.Info("database backend selected",
				zap.String("backend", string(BackendPostgres)),
				zap.String("host", opts.Host),
				zap.String("database", opts.DBName))
			return &Database{db: db, backend: BackendPostgres, logger: logger}, nil
		}
		logger.Warn("postgres unreachable, falling back to sqlite",
			zap.String("host", opts.Host),
			zap.Error(err))
	} else {
		logger.Info("no postgres host configured, using sqlite")
	}

	db, err := openSQLite(ctx, opts.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite fallback: %w", err)
	}

	logger.Info("database backend selected",
		zap.String("backend", string(BackendSQLite)),
		zap.String("path", opts.SQLitePath))
	return &Database{db: db, backend: BackendSQLite, logger: logger}, nil
}

func openPostgres(ctx context.Context, opts Options) (*sql.DB, error) {
	dsn := PostgresDSN(opts)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	timeout := opts.ConnectTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	return db, nil
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = "paeshift.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// PostgresDSN builds the lib/pq connection string. The connect_timeout is
// expressed in whole seconds, minimum 1.
func PostgresDSN(opts Options) string {
	timeout := int(opts.ConnectTimeout.Seconds())
	if timeout < 1 {
		timeout = 1
	}
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=require connect_timeout=%d",
		opts.Host, opts.Port, opts.DBName, opts.Username, opts.Password, timeout,
	)
}

func (d *Database) DB() *sql.DB {
	return d.db
}

func (d *Database) Backend() Backend {
	return d.backend
}

func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *Database) Close() error {
	return d.db.Close()
}

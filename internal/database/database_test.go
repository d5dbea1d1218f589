package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewUsesSQLiteWhenNoHostConfigured(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := New(context.Background(), Options{SQLitePath: path}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, BackendSQLite, db.Backend())
	assert.NoError(t, db.Ping(context.Background()))
}

func TestNewFallsBackWhenPostgresUnreachable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.db")

	db, err := New(context.Background(), Options{
		Host:           "127.0.0.1",
		Port:           1, // nothing listens here
		DBName:         "paeshift",
		Username:       "paeshift",
		ConnectTimeout: time.Second,
		SQLitePath:     path,
	}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, BackendSQLite, db.Backend())
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(Options{
		Host:           "db.internal",
		Port:           5432,
		DBName:         "paeshift",
		Username:       "app",
		Password:       "s3cret",
		ConnectTimeout: 5 * time.Second,
	})

	assert.Equal(t,
		"host=db.internal port=5432 dbname=paeshift user=app password=s3cret sslmode=require connect_timeout=5",
		dsn)
}

func TestPostgresDSNMinimumTimeout(t *testing.T) {
	dsn := PostgresDSN(Options{Host: "h", Port: 5432, DBName: "d", Username: "u"})
	assert.Contains(t, dsn, "connect_timeout=1")
}

// Package store holds the repositories over the selected database backend.
// Detail reads load their relations in a single JOIN query so the hot
// endpoints never fan out into per-row lookups.
package store

import (
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/cache"
	"github.com/tsucess/paeshift-backend-sub001/internal/database"
	"github.com/tsucess/paeshift-backend-sub001/internal/telemetry"
)

var tracer = telemetry.GetTracer("paeshift/store")

type Store struct {
	db       *database.Database
	cache    cache.Cache
	stats    *cache.Stats
	cacheTTL time.Duration
	logger   *zap.Logger
}

type Options struct {
	CacheTTL time.Duration
}

func New(db *database.Database, c cache.Cache, logger *zap.Logger, opts Options) *Store {
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = cache.DefaultOptions().DefaultTTL
	}
	return &Store{
		db:       db,
		cache:    c,
		stats:    &cache.Stats{},
		cacheTTL: ttl,
		logger:   logger,
	}
}

// CacheStats exposes the read-through counters for the stats endpoint.
func (s *Store) CacheStats() cache.StatsSnapshot {
	return s.stats.Snapshot()
}

func (s *Store) rebind(query string) string {
	return rebind(s.db.Backend(), query)
}

// rebind rewrites `?` placeholders to `$n` for Postgres. Queries in this
// package are written against the SQLite form.
func rebind(backend database.Backend, query string) string {
	if backend != database.BackendPostgres {
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

// isUniqueViolation reports whether an insert failed on a UNIQUE constraint.
// Existence checks run before inserts, but a concurrent writer can still win
// the race, and that case is a duplicate, not an internal error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

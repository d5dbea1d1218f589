package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

var (
	ErrNotFound     = errors.New("key not found in cache")
	ErrInvalidValue = errors.New("invalid value for cache")
	ErrClosed       = errors.New("cache is closed")
	ErrInvalidKey   = errors.New("invalid cache key")
)

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Get(ctx context.Context, key string, value interface{}) error

	Delete(ctx context.Context, key string) error

	Clear(ctx context.Context) error

	Close() error
}

type Options struct {
	DefaultTTL time.Duration

	CleanupInterval time.Duration

	RedisAddr string

	RedisPassword string

	RedisDB int
}

func DefaultOptions() Options {
	return Options{
		DefaultTTL:      time.Hour,
		CleanupInterval: time.Minute * 5,
	}
}

const keyPrefix = "payshift"

// JobKey is the cache key for a job detail read.
func JobKey(jobID string) string {
	return fmt.Sprintf("%s:job:%s", keyPrefix, jobID)
}

// UserPaymentsKey is the cache key for a user's payment listing.
func UserPaymentsKey(userID string) string {
	return fmt.Sprintf("%s:userpayments:%s", keyPrefix, userID)
}

// Stats holds read-through counters. The hit rate it reports is the live
// equivalent of the figures the caching runbooks print.
type Stats struct {
	hits   atomic.Int64
	misses atomic.Int64
	errors atomic.Int64
}

func (s *Stats) Hit()   { s.hits.Add(1) }
func (s *Stats) Miss()  { s.misses.Add(1) }
func (s *Stats) Error() { s.errors.Add(1) }

type StatsSnapshot struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Errors  int64   `json:"errors"`
	HitRate float64 `json:"hit_rate"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	hits := s.hits.Load()
	misses := s.misses.Load()
	snap := StatsSnapshot{
		Hits:   hits,
		Misses: misses,
		Errors: s.errors.Load(),
	}
	if total := hits + misses; total > 0 {
		snap.HitRate = float64(hits) / float64(total)
	}
	return snap
}

package cache

import (
	"context"
	"encoding"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is a process-local Cache used when Redis is not configured and in
// tests. Expired entries are dropped lazily on read and by a background
// sweep.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
	done       chan struct{}
	closeOnce  sync.Once
}

func NewMemory(opts Options) *Memory {
	ttl := opts.DefaultTTL
	if ttl == 0 {
		ttl = DefaultOptions().DefaultTTL
	}
	sweep := opts.CleanupInterval
	if sweep == 0 {
		sweep = DefaultOptions().CleanupInterval
	}

	m := &Memory{
		entries:    make(map[string]memoryEntry),
		defaultTTL: ttl,
		done:       make(chan struct{}),
	}
	go m.sweepLoop(sweep)
	return m
}

func (m *Memory) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for key, entry := range m.entries {
				if now.After(entry.expiresAt) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *Memory) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if ttl == 0 {
		ttl = m.defaultTTL
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = append([]byte(nil), v...)
	case encoding.BinaryMarshaler:
		b, err := v.MarshalBinary()
		if err != nil {
			return err
		}
		data = b
	default:
		return ErrInvalidValue
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		return ErrClosed
	}
	m.entries[key] = memoryEntry{data: data, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *Memory) Get(ctx context.Context, key string, value interface{}) error {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return ErrNotFound
	}

	switch v := value.(type) {
	case *string:
		*v = string(entry.data)
	case encoding.BinaryUnmarshaler:
		return v.UnmarshalBinary(entry.data)
	default:
		return ErrInvalidValue
	}

	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		return ErrClosed
	}
	m.entries = make(map[string]memoryEntry)
	return nil
}

// Close stops the sweep loop and rejects further writes.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
		m.mu.Lock()
		m.entries = nil
		m.mu.Unlock()
	})
	return nil
}

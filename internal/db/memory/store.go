// Package memory implements db.Store in process with a bounded expirable LRU.
// Used when no shared store is configured.
package memory

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kailas-cloud/gifrank/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Defaults.
const (
	DefaultMaxEntries = 10_000
	DefaultTTL        = 24 * time.Hour
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero when the entry lives for the store TTL
}

// Store keeps values in an LRU with a store-wide TTL.
// SetWithTTL may shorten, never extend, an entry's lifetime.
type Store struct {
	cache  *expirable.LRU[string, entry]
	closed atomic.Bool
	now    func() time.Time
}

// NewStore creates an in-memory store.
func NewStore(maxEntries int, ttl time.Duration) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		cache: expirable.NewLRU[string, entry](maxEntries, nil, ttl),
		now:   time.Now,
	}
}

// Ping reports whether the store is open.
func (s *Store) Ping(context.Context) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	return nil
}

// Get retrieves a copy of the value at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrClosed}
	}
	e, ok := s.cache.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.cache.Remove(key)
		return nil, db.ErrKeyNotFound
	}
	return slices.Clone(e.value), nil
}

// Set stores a copy of value for the store TTL.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a copy of value. ttl <= 0 uses the store TTL.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpSet, Err: db.ErrClosed}
	}
	e := entry{value: slices.Clone(value)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.cache.Add(key, e)
	return nil
}

// Del removes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

// Len returns the number of live entries.
func (s *Store) Len() int { return s.cache.Len() }

// Close drops all entries; later calls fail with db.ErrClosed.
func (s *Store) Close() {
	s.closed.Store(true)
	s.cache.Purge()
}

// WaitForReady returns immediately for an open store.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

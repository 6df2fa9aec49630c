// Package cache contains TTL-cached fetch-through stores for chain and
// backend derived data.
package cache

import (
	"context"
	"sync"
	"time"
)

// TTLs of the three store kinds.
const (
	// ProfileTTL caches user profiles.
	ProfileTTL = 5 * time.Minute
	// ChainTTL caches balances and NFT holdings. Short, the chain is the
	// source of truth and mints happen often.
	ChainTTL = 30 * time.Second
	// SyncTTL caches backend profile sync state.
	SyncTTL = time.Minute
)

// Clock returns the current time. Injectable for tests.
type Clock func() time.Time

// FetchFunc loads a fresh value for a key.
type FetchFunc[T any] func(ctx context.Context, key string) (T, error)

type entry[T any] struct {
	value     T
	fetchedAt time.Time
}

// Store is a keyed fetch-through cache. Get returns the cached value without
// calling fetch while it is younger than ttl, otherwise fetches and caches.
// Writes are last-writer-wins.
type Store[T any] struct {
	mtx     sync.Mutex
	ttl     time.Duration
	now     Clock
	fetch   FetchFunc[T]
	entries map[string]entry[T]
}

// New creates a store with the given ttl and fetch function.
func New[T any](ttl time.Duration, fetch FetchFunc[T]) *Store[T] {
	return &Store[T]{
		ttl:     ttl,
		now:     time.Now,
		fetch:   fetch,
		entries: make(map[string]entry[T]),
	}
}

// WithClock overrides the store's clock.
func (s *Store[T]) WithClock(now Clock) *Store[T] {
	s.now = now
	return s
}

// Get returns the value for key, fetching it if the cached one is stale.
func (s *Store[T]) Get(ctx context.Context, key string) (T, error) {
	s.mtx.Lock()
	if e, ok := s.entries[key]; ok && s.now().Sub(e.fetchedAt) < s.ttl {
		s.mtx.Unlock()
		return e.value, nil
	}
	s.mtx.Unlock()

	v, err := s.fetch(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}

	s.mtx.Lock()
	s.entries[key] = entry[T]{value: v, fetchedAt: s.now()}
	s.mtx.Unlock()

	return v, nil
}

// Invalidate drops the cached value for key so the next Get fetches.
func (s *Store[T]) Invalidate(key string) {
	s.mtx.Lock()
	delete(s.entries, key)
	s.mtx.Unlock()
}

// Reset drops all cached values.
func (s *Store[T]) Reset() {
	s.mtx.Lock()
	s.entries = make(map[string]entry[T])
	s.mtx.Unlock()
}

// Resettable is anything with a Reset action.
type Resettable interface {
	Reset()
}

// Group resets several stores at once, the "clear all cached state" action.
type Group []Resettable

// Reset ...
func (g Group) Reset() {
	for _, s := range g {
		s.Reset()
	}
}

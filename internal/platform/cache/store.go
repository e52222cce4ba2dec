// Package cache is a small read-through cache for competition reads.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

var errNoLoader = errors.New("cache: loader is required")

type item[V any] struct {
	value   V
	expires time.Time
}

// loading tracks callers inside GetOrLoad for one key. epoch moves on every
// Delete so a load that started earlier cannot store its result. The entry
// lives only while pending is positive.
type loading struct {
	pending int
	epoch   uint64
}

// Store caches values per key for ttl (zero means until deleted) and
// collapses concurrent misses on one key into a single load. A Delete that
// lands while a load is in flight keeps that load's result out of the cache.
type Store[V any] struct {
	ttl   time.Duration
	clock clockwork.Clock
	group singleflight.Group

	mu    sync.Mutex
	items map[string]item[V]
	loads map[string]*loading
}

func NewStore[V any](ttl time.Duration, clock clockwork.Clock) *Store[V] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store[V]{
		ttl:   ttl,
		clock: clock,
		items: make(map[string]item[V]),
		loads: make(map[string]*loading),
	}
}

// Get returns a live entry and evicts an expired one.
func (s *Store[V]) Get(_ context.Context, key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(key)
}

func (s *Store[V]) Set(_ context.Context, key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(key, value)
}

func (s *Store[V]) Delete(_ context.Context, key string) {
	s.mu.Lock()
	delete(s.items, key)
	if l, ok := s.loads[key]; ok {
		l.epoch++
	}
	s.mu.Unlock()
	s.group.Forget(key)
}

// GetOrLoad returns the cached value or runs load once for every concurrent
// caller of the same key. Errors are returned but never cached.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	var zero V
	if load == nil {
		return zero, errNoLoader
	}

	s.mu.Lock()
	if v, ok := s.lookup(key); ok {
		s.mu.Unlock()
		return v, nil
	}
	l := s.loads[key]
	if l == nil {
		l = &loading{}
		s.loads[key] = l
	}
	l.pending++
	started := l.epoch
	s.mu.Unlock()
	defer s.release(key, l)

	res, err, _ := s.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if l.epoch == started {
			s.store(key, v)
		}
		s.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return res.(V), nil
}

func (s *Store[V]) release(key string, l *loading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.pending--
	if l.pending == 0 && s.loads[key] == l {
		delete(s.loads, key)
	}
}

func (s *Store[V]) lookup(key string) (V, bool) {
	it, ok := s.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if s.ttl > 0 && !s.clock.Now().Before(it.expires) {
		delete(s.items, key)
		var zero V
		return zero, false
	}
	return it.value, true
}

func (s *Store[V]) store(key string, value V) {
	it := item[V]{value: value}
	if s.ttl > 0 {
		it.expires = s.clock.Now().Add(s.ttl)
	}
	s.items[key] = it
}

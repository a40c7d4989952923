package apicache

import (
	"context"
	"sync"
)

// Subscription is a mounted consumer of one cache entry.
type Subscription[R any] struct {
	api     *API
	e       *entry
	id      int
	ch      chan struct{}
	refetch func(context.Context) Result[R]
	once    sync.Once
}

// Current returns the entry as it is now.
func (s *Subscription[R]) Current() Result[R] {
	s.api.mu.Lock()
	defer s.api.mu.Unlock()
	return resultOf[R](s.e.snapshot())
}

// Changes signals, coalesced, whenever the entry changes: a fetch starts or
// settles, the entry is invalidated, or the cache is reset.
func (s *Subscription[R]) Changes() <-chan struct{} { return s.ch }

// Next waits for the next change that leaves the entry settled and returns it.
func (s *Subscription[R]) Next(ctx context.Context) (Result[R], error) {
	for {
		select {
		case <-s.ch:
			r := s.Current()
			if !r.IsFetching && !r.IsStale {
				return r, nil
			}
		case <-ctx.Done():
			return s.Current(), ctx.Err()
		}
	}
}

// Refetch forces a request for this entry.
func (s *Subscription[R]) Refetch(ctx context.Context) Result[R] {
	return s.refetch(ctx)
}

// Unsubscribe releases the entry. Once the last subscriber leaves, the entry
// is kept for keepUnusedFor and then dropped.
func (s *Subscription[R]) Unsubscribe() {
	s.once.Do(func() {
		a := s.api
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(s.e.watchers, s.id)
		if s.e.subscribers > 0 {
			s.e.subscribers--
		}
		if a.lookupLocked(s.e.key) == s.e {
			a.retainLocked(s.e)
		}
	})
}

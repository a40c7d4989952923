package apicache

import (
	"time"

	"github.com/Raheemullah8/hms-portal/internal/transport"
)

// Status is the lifecycle of a cache entry or mutation.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusPending       Status = "pending"
	StatusFulfilled     Status = "fulfilled"
	StatusRejected      Status = "rejected"
)

// Result is what queries and mutations hand back. Errors are carried as
// values; a rejected refetch keeps the last good Data.
type Result[T any] struct {
	Data        T
	Error       *transport.Error
	Status      Status
	HasData     bool
	IsFetching  bool
	IsStale     bool
	FulfilledAt time.Time
}

// IsLoading is true for the first load, before any data exists.
func (r Result[T]) IsLoading() bool { return r.IsFetching && !r.HasData }

func (r Result[T]) IsSuccess() bool { return r.Status == StatusFulfilled }

func (r Result[T]) IsError() bool { return r.Status == StatusRejected }

// Unwrap returns the data or the error, like awaiting a mutation's unwrap().
func (r Result[T]) Unwrap() (T, error) {
	if r.Error != nil {
		var zero T
		return zero, r.Error
	}
	return r.Data, nil
}

// snapshot is a consistent copy of an entry taken under API.mu.
type snapshot struct {
	data        any
	hasData     bool
	err         *transport.Error
	status      Status
	fetching    bool
	stale       bool
	fulfilledAt time.Time
}

func resultOf[R any](s snapshot) Result[R] {
	r := Result[R]{
		Error:       s.err,
		Status:      s.status,
		HasData:     s.hasData,
		IsFetching:  s.fetching,
		IsStale:     s.stale,
		FulfilledAt: s.fulfilledAt,
	}
	if v, ok := s.data.(R); ok {
		r.Data = v
	}
	return r
}

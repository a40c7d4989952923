package apicache

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Raheemullah8/hms-portal/internal/transport"
)

// QueryDef declares a cached read.
type QueryDef[A, R any] struct {
	Name  string
	Query func(A) transport.Request
	// Provides are attached to every result, success or error.
	Provides []Tag
	// ProvidesFn adds tags computed from the outcome and the argument.
	ProvidesFn func(result R, err *transport.Error, arg A) []Tag
}

// Query is a registered endpoint bound to its API.
type Query[A, R any] struct {
	api *API
	def QueryDef[A, R]
}

// NewQuery registers def on api. It panics if def is incomplete or names a
// tag type the API did not declare.
func NewQuery[A, R any](api *API, def QueryDef[A, R]) *Query[A, R] {
	if def.Name == "" || def.Query == nil {
		panic("apicache: query needs a name and a request builder")
	}
	api.checkTags(def.Name, def.Provides)
	return &Query[A, R]{api: api, def: def}
}

// Name is the endpoint name.
func (q *Query[A, R]) Name() string { return q.def.Name }

// Key is the cache key for arg.
func (q *Query[A, R]) Key(arg A) string {
	return cacheKey(q.api.name, q.def.Name, arg)
}

func (q *Query[A, R]) refetcher(key string, arg A) func(context.Context) {
	return func(ctx context.Context) {
		q.run(ctx, key, arg)
	}
}

// Select reads the cache without fetching.
func (q *Query[A, R]) Select(arg A) Result[R] {
	key := q.Key(arg)
	q.api.mu.Lock()
	defer q.api.mu.Unlock()
	e := q.api.lookupLocked(key)
	if e == nil {
		return Result[R]{Status: StatusUninitialized}
	}
	return resultOf[R](e.snapshot())
}

// Fetch returns the cached result when it is fulfilled and not stale, and
// otherwise performs a request shared with any identical one in flight.
func (q *Query[A, R]) Fetch(ctx context.Context, arg A) Result[R] {
	key := q.Key(arg)
	q.api.mu.Lock()
	e := q.api.getOrCreateLocked(key, q.def.Name, q.refetcher(key, arg))
	if e.status == StatusFulfilled && e.hasData && !e.stale {
		snap := e.snapshot()
		q.api.mu.Unlock()
		q.api.metrics.ObserveQuery(q.api.name, q.def.Name, "hit")
		return resultOf[R](snap)
	}
	q.api.mu.Unlock()
	return q.run(ctx, key, arg)
}

// Refetch forces a request, joining one already in flight for the same key.
func (q *Query[A, R]) Refetch(ctx context.Context, arg A) Result[R] {
	key := q.Key(arg)
	q.api.mu.Lock()
	q.api.getOrCreateLocked(key, q.def.Name, q.refetcher(key, arg))
	q.api.mu.Unlock()
	return q.run(ctx, key, arg)
}

// Subscribe mounts a consumer on arg's entry. It fetches when the entry is
// absent, rejected or stale and returns once that first load settles or ctx
// ends. The subscription pins the entry until Unsubscribe.
func (q *Query[A, R]) Subscribe(ctx context.Context, arg A) *Subscription[R] {
	key := q.Key(arg)
	a := q.api

	a.mu.Lock()
	e := a.getOrCreateLocked(key, q.def.Name, q.refetcher(key, arg))
	e.subscribers++
	a.nextWatcher++
	id := a.nextWatcher
	ch := make(chan struct{}, 1)
	e.watchers[id] = ch
	a.retainLocked(e)
	needsFetch := !e.hasData || e.status != StatusFulfilled || e.stale
	a.mu.Unlock()

	sub := &Subscription[R]{
		api:     a,
		e:       e,
		id:      id,
		ch:      ch,
		refetch: func(ctx context.Context) Result[R] { return q.Refetch(ctx, arg) },
	}
	if needsFetch {
		q.run(ctx, key, arg)
		// the first load is not a change the subscriber needs to hear about
		select {
		case <-ch:
		default:
		}
	} else {
		a.metrics.ObserveQuery(a.name, q.def.Name, "hit")
	}
	return sub
}

// run waits for the shared request for key. The request itself never
// observes the caller's cancellation.
func (q *Query[A, R]) run(ctx context.Context, key string, arg A) Result[R] {
	a := q.api
	a.mu.Lock()
	gen := a.gen
	a.mu.Unlock()

	flightKey := fmt.Sprintf("%d|%s", gen, key)
	detached := context.WithoutCancel(ctx)
	ch := a.group.DoChan(flightKey, func() (any, error) {
		return q.execute(detached, flightKey, key, arg, gen), nil
	})

	select {
	case res := <-ch:
		snap, _ := res.Val.(snapshot)
		outcome := "miss"
		if res.Shared {
			outcome = "shared"
		}
		if snap.status == StatusRejected {
			outcome = "error"
		}
		a.metrics.ObserveQuery(a.name, q.def.Name, outcome)
		return resultOf[R](snap)
	case <-ctx.Done():
		a.mu.Lock()
		var snap snapshot
		if e := a.lookupLocked(key); e != nil {
			snap = e.snapshot()
		}
		a.mu.Unlock()
		r := resultOf[R](snap)
		r.Status = StatusRejected
		r.Error = &transport.Error{Kind: transport.KindNetwork, Message: "request aborted", Err: ctx.Err()}
		return r
	}
}

// execute performs the request and writes the outcome into the entry. It is
// the only writer of query data.
func (q *Query[A, R]) execute(ctx context.Context, flightKey, key string, arg A, gen uint64) snapshot {
	a := q.api

	a.mu.Lock()
	seq := a.settled
	var e *entry
	if gen == a.gen {
		e = a.getOrCreateLocked(key, q.def.Name, q.refetcher(key, arg))
	}
	if e != nil {
		e.fetching = true
		if !e.hasData {
			e.status = StatusPending
		}
		a.retainLocked(e)
		e.notify()
	}
	a.inflight++
	a.broadcastLocked()
	a.mu.Unlock()

	ctx, span := a.tracer.Start(ctx, "apicache.query", trace.WithAttributes(
		attribute.String("hms.api", a.name),
		attribute.String("hms.endpoint", q.def.Name),
	))
	var out R
	terr := a.client.Do(ctx, q.def.Query(arg), &out)
	if terr != nil {
		span.RecordError(terr)
		span.SetStatus(codes.Error, string(terr.Kind))
	}
	span.End()

	tags := append([]Tag(nil), q.def.Provides...)
	if q.def.ProvidesFn != nil {
		tags = append(tags, a.filterTags(q.def.Name, q.def.ProvidesFn(out, terr, arg))...)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.inflight--

	var snap snapshot
	if e != nil && e.gen == a.gen && gen == a.gen {
		if terr == nil {
			e.data = out
			e.hasData = true
			e.err = nil
			e.status = StatusFulfilled
			e.fulfilledAt = time.Now()
		} else {
			e.err = terr
			e.status = StatusRejected
		}
		e.fetching = false
		e.seq = seq
		a.index.remove(key, e.tags)
		e.tags = tags
		a.index.add(key, tags)
		// a mutation that settled while this request was out may have
		// changed what it read
		e.stale = a.staleSinceLocked(key, seq)
		a.retainLocked(e)
		e.notify()
		snap = e.snapshot()
		if terr != nil {
			a.logger.Debug("query rejected", "endpoint", q.def.Name, "key", key, "error", terr)
		}
	} else {
		// the cache was reset while this request was in flight; a mounted
		// entry already belongs to the new generation
		if e != nil && e.gen != a.gen {
			e.fetching = false
			e.notify()
		}
		snap = snapshot{status: StatusRejected, err: terr}
		if terr == nil {
			snap = snapshot{data: out, hasData: true, status: StatusFulfilled, fulfilledAt: time.Now()}
		}
	}

	// a refetch scheduled by the flush below must start a new flight
	a.group.Forget(flightKey)
	refetches := a.flushLocked()
	a.broadcastLocked()
	a.runRefetches(refetches)
	return snap
}

package apicache

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Raheemullah8/hms-portal/internal/transport"
)

// IdempotencyHeader carries a fresh key on every mutation request.
const IdempotencyHeader = "Idempotency-Key"

// MutationDef declares a write.
type MutationDef[A, R any] struct {
	Name  string
	Query func(A) transport.Request
	// Invalidates are queued when the mutation succeeds.
	Invalidates []Tag
	// InvalidatesFn adds tags computed from the outcome and the argument.
	InvalidatesFn func(result R, err *transport.Error, arg A) []Tag
}

// Mutation is a registered write bound to its API. Mutations are never
// cached or deduplicated.
type Mutation[A, R any] struct {
	api *API
	def MutationDef[A, R]
}

// NewMutation registers def on api.
func NewMutation[A, R any](api *API, def MutationDef[A, R]) *Mutation[A, R] {
	if def.Name == "" || def.Query == nil {
		panic("apicache: mutation needs a name and a request builder")
	}
	api.checkTags(def.Name, def.Invalidates)
	return &Mutation[A, R]{api: api, def: def}
}

// Name is the endpoint name.
func (m *Mutation[A, R]) Name() string { return m.def.Name }

// Do sends the mutation. On success every entry its tags match is stale by
// the time Do returns; mounted entries refetch once no other mutation is
// pending and no query is in flight. A failed mutation leaves the cache
// untouched.
func (m *Mutation[A, R]) Do(ctx context.Context, arg A) Result[R] {
	a := m.api
	a.mu.Lock()
	a.pendingMutations++
	a.broadcastLocked()
	a.mu.Unlock()

	req := m.def.Query(arg)
	if req.Header == nil {
		req.Header = http.Header{}
	} else {
		req.Header = req.Header.Clone()
	}
	req.Header.Set(IdempotencyHeader, uuid.NewString())

	ctx, span := a.tracer.Start(ctx, "apicache.mutation", trace.WithAttributes(
		attribute.String("hms.api", a.name),
		attribute.String("hms.endpoint", m.def.Name),
	))
	var out R
	terr := a.client.Do(ctx, req, &out)
	if terr != nil {
		span.RecordError(terr)
		span.SetStatus(codes.Error, string(terr.Kind))
	}
	span.End()

	var tags []Tag
	if terr == nil {
		tags = append(tags, m.def.Invalidates...)
		if m.def.InvalidatesFn != nil {
			tags = append(tags, a.filterTags(m.def.Name, m.def.InvalidatesFn(out, terr, arg))...)
		}
	}

	a.mu.Lock()
	a.pendingMutations--
	a.invalidateLocked(tags)
	refetches := a.flushLocked()
	a.broadcastLocked()
	a.mu.Unlock()
	a.runRefetches(refetches)

	if terr != nil {
		a.metrics.ObserveMutation(a.name, m.def.Name, string(StatusRejected))
		a.logger.Debug("mutation rejected", "endpoint", m.def.Name, "error", terr)
		return Result[R]{Data: out, Error: terr, Status: StatusRejected}
	}
	a.metrics.ObserveMutation(a.name, m.def.Name, string(StatusFulfilled))
	return Result[R]{Data: out, HasData: true, Status: StatusFulfilled, FulfilledAt: time.Now()}
}

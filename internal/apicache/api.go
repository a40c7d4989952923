package apicache

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/Raheemullah8/hms-portal/internal/observability/metrics"
	"github.com/Raheemullah8/hms-portal/internal/transport"
	"github.com/Raheemullah8/hms-portal/pkg/logging"
)

// DefaultKeepUnusedFor is how long an entry with no subscribers stays cached.
const DefaultKeepUnusedFor = 60 * time.Second

// Options tune an API. Zero values pick the defaults.
type Options struct {
	// KeepUnusedFor keeps unsubscribed entries cached. Zero means the default;
	// a negative value drops them as soon as the last subscriber leaves.
	KeepUnusedFor time.Duration
	Logger        *logging.Logger
	Metrics       *metrics.CacheMetrics
}

// entry is one cached query result. All fields are guarded by API.mu.
type entry struct {
	key         string
	endpoint    string
	gen         uint64
	data        any
	hasData     bool
	err         *transport.Error
	status      Status
	fetching    bool
	stale       bool
	fulfilledAt time.Time
	// seq is the settled-mutation count when the request that wrote data
	// started. Invalidations settled after it make the data stale.
	seq         uint64
	subscribers int
	tags        []Tag
	watchers    map[int]chan struct{}
	refetch     func(context.Context)
}

func (e *entry) snapshot() snapshot {
	return snapshot{
		data:        e.data,
		hasData:     e.hasData,
		err:         e.err,
		status:      e.status,
		fetching:    e.fetching,
		stale:       e.stale,
		fulfilledAt: e.fulfilledAt,
	}
}

func (e *entry) notify() {
	for _, ch := range e.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// API is one resource module's cache: the createApi analog. Entries live in
// go-cache so unused ones expire; the tag index maps provided tags to keys.
type API struct {
	name     string
	client   *transport.Client
	tagTypes map[string]struct{}
	keep     time.Duration
	logger   *logging.Logger
	metrics  *metrics.CacheMetrics
	tracer   trace.Tracer

	store *gocache.Cache
	group singleflight.Group

	mu               sync.Mutex
	index            tagIndex
	gen              uint64
	inflight         int
	pendingMutations int
	scheduled        int
	settled          uint64
	pending          []invalidation
	nextWatcher      int
	changed          chan struct{}
}

// invalidation is the tag set of one settled mutation, waiting for its
// refetches to be scheduled.
type invalidation struct {
	seq  uint64
	tags []Tag
}

// New builds an API named name (its reducer path) over client.
func New(name string, client *transport.Client, opts Options, tagTypes ...string) *API {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	keep := opts.KeepUnusedFor
	if keep == 0 {
		keep = DefaultKeepUnusedFor
	}
	if keep < 0 {
		keep = time.Nanosecond
	}
	cleanup := keep
	if cleanup < time.Second {
		cleanup = time.Second
	}

	a := &API{
		name:     name,
		client:   client.Named(name),
		tagTypes: make(map[string]struct{}, len(tagTypes)),
		keep:     keep,
		logger:   logger.With("api", name),
		metrics:  opts.Metrics,
		tracer:   otel.Tracer("hms.internal.apicache"),
		store:    gocache.New(keep, cleanup),
		index:    make(tagIndex),
		changed:  make(chan struct{}),
	}
	for _, typ := range tagTypes {
		a.tagTypes[typ] = struct{}{}
	}
	a.store.OnEvicted(a.evicted)
	return a
}

// Name is the reducer path.
func (a *API) Name() string { return a.name }

// Client is the transport this API sends through.
func (a *API) Client() *transport.Client { return a.client }

func (a *API) checkTags(where string, tags []Tag) {
	for _, tag := range tags {
		if _, ok := a.tagTypes[tag.Type]; !ok {
			panic(fmt.Sprintf("apicache: %s/%s uses unregistered tag type %q", a.name, where, tag.Type))
		}
	}
}

func (a *API) filterTags(where string, tags []Tag) []Tag {
	out := tags[:0:0]
	for _, tag := range tags {
		if _, ok := a.tagTypes[tag.Type]; !ok {
			a.logger.Warn("dropping unregistered tag", "endpoint", where, "tag", tag.String())
			continue
		}
		out = append(out, tag)
	}
	return out
}

// evicted runs after go-cache has dropped an expired entry. It never runs
// with go-cache's lock held, so taking mu here is safe. Code holding mu must
// not call store.Delete.
func (a *API) evicted(key string, value any) {
	e, ok := value.(*entry)
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if current, found := a.store.Get(key); found && current != value {
		return
	}
	a.index.remove(key, e.tags)
	e.tags = nil
	a.logger.Debug("cache entry expired", "key", key)
}

// lookupLocked returns the live entry for key, if any.
func (a *API) lookupLocked(key string) *entry {
	value, ok := a.store.Get(key)
	if !ok {
		return nil
	}
	e, _ := value.(*entry)
	return e
}

func (a *API) getOrCreateLocked(key, endpoint string, refetch func(context.Context)) *entry {
	if e := a.lookupLocked(key); e != nil {
		return e
	}
	e := &entry{
		key:      key,
		endpoint: endpoint,
		gen:      a.gen,
		status:   StatusUninitialized,
		watchers: make(map[int]chan struct{}),
		refetch:  refetch,
	}
	a.store.Set(key, e, gocache.NoExpiration)
	return e
}

// retainLocked refreshes an entry's expiry: pinned while subscribed or
// fetching, keepUnusedFor otherwise.
func (a *API) retainLocked(e *entry) {
	if e.gen != a.gen {
		return
	}
	ttl := a.keep
	if e.subscribers > 0 || e.fetching {
		ttl = gocache.NoExpiration
	}
	a.store.Set(e.key, e, ttl)
}

func (a *API) broadcastLocked() {
	close(a.changed)
	a.changed = make(chan struct{})
}

func (a *API) idleLocked() bool {
	return a.inflight == 0 && a.pendingMutations == 0 && a.scheduled == 0 && len(a.pending) == 0
}

// invalidateLocked records a settled mutation's tags. Every matched entry
// goes stale at once so no read after the mutation is served old data; the
// refetches wait for flushLocked.
func (a *API) invalidateLocked(tags []Tag) {
	if len(tags) == 0 {
		return
	}
	a.settled++
	a.pending = append(a.pending, invalidation{seq: a.settled, tags: tags})
	invalidated := 0
	a.index.match(tags).Each(func(key string) bool {
		if e := a.lookupLocked(key); e != nil {
			invalidated++
			e.stale = true
			e.notify()
		}
		return false
	})
	a.metrics.ObserveInvalidated(a.name, invalidated)
	a.logger.Debug("tags invalidated", "tags", fmt.Sprint(tags), "entries", invalidated)
}

// staleSinceLocked reports whether a mutation settled after seq invalidated
// key.
func (a *API) staleSinceLocked(key string, seq uint64) bool {
	for _, inv := range a.pending {
		if inv.seq > seq && a.index.match(inv.tags).Contains(key) {
			return true
		}
	}
	return false
}

// flushLocked schedules the refetches for queued invalidations once nothing
// is pending or in flight. Each subscribed entry whose data predates an
// invalidation is returned for exactly one refetch; unsubscribed ones stay
// stale and refetch on their next use.
func (a *API) flushLocked() []func(context.Context) {
	if a.pendingMutations > 0 || a.inflight > 0 || len(a.pending) == 0 {
		return nil
	}
	pending := a.pending
	a.pending = nil

	due := make(map[string]*entry)
	for _, inv := range pending {
		a.index.match(inv.tags).Each(func(key string) bool {
			if e := a.lookupLocked(key); e != nil && e.seq < inv.seq {
				due[key] = e
			}
			return false
		})
	}
	var refetches []func(context.Context)
	for _, e := range due {
		if !e.stale {
			e.stale = true
			e.notify()
		}
		if e.subscribers > 0 && e.refetch != nil {
			refetches = append(refetches, e.refetch)
		}
	}
	a.scheduled += len(refetches)
	a.logger.Debug("invalidations flushed", "mutations", len(pending), "refetching", len(refetches))
	a.broadcastLocked()
	return refetches
}

func (a *API) runRefetches(refetches []func(context.Context)) {
	for _, refetch := range refetches {
		go func(fn func(context.Context)) {
			defer func() {
				a.mu.Lock()
				a.scheduled--
				a.broadcastLocked()
				a.mu.Unlock()
			}()
			fn(context.Background())
		}(refetch)
	}
}

// WaitIdle blocks until no request, mutation, queued invalidation or
// scheduled refetch remains.
func (a *API) WaitIdle(ctx context.Context) error {
	for {
		a.mu.Lock()
		if a.idleLocked() {
			a.mu.Unlock()
			return nil
		}
		changed := a.changed
		a.mu.Unlock()
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Reset drops every entry and queued invalidation; results of requests
// still in flight are discarded. Mounted entries stay attached to their
// subscribers, back at uninitialized, until the next fetch.
func (a *API) Reset() {
	a.mu.Lock()
	items := a.store.Items()
	a.gen++
	a.index = make(tagIndex)
	a.pending = nil
	a.store.Flush()
	for key, item := range items {
		e, ok := item.Object.(*entry)
		if !ok {
			continue
		}
		e.data = nil
		e.hasData = false
		e.err = nil
		e.status = StatusUninitialized
		e.stale = false
		e.fetching = false
		e.seq = 0
		e.tags = nil
		if e.subscribers > 0 {
			e.gen = a.gen
			a.store.Set(key, e, gocache.NoExpiration)
		} else {
			e.refetch = nil
		}
		e.notify()
	}
	a.broadcastLocked()
	a.mu.Unlock()
	a.logger.Debug("cache reset")
}

// Len reports how many entries the cache holds, mounted ones included.
func (a *API) Len() int {
	return a.store.ItemCount()
}

// Package cache is the dashboard's single source of truth for backend
// state: an in-memory, stale-while-revalidate store keyed by logical
// resource. Concurrent interest in a key shares one fetch, a fixed-interval
// ticker revalidates subscribed keys, and mutations force a refetch through
// Invalidate. Fetch results are applied in issue order: a response from a
// superseded fetch is discarded.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultEvictionGrace = 5 * time.Second

const (
	resultSuccess   = "success"
	resultError     = "error"
	resultDiscarded = "discarded"
)

// Fetch loads the current backend value for a key.
type Fetch func(ctx context.Context) (any, error)

// Result is a point-in-time view of an entry. Value is the last successful
// fetch (nil before the first one) and is retained when a later fetch
// fails; consumers read Err to decide on banners.
type Result struct {
	Value     any
	Loading   bool
	Err       error
	UpdatedAt time.Time
}

// Options control per-key behavior, set when the key is registered.
type Options struct {
	// RefreshInterval revalidates the key on a ticker while it has
	// subscribers. Zero disables timed revalidation.
	RefreshInterval time.Duration
	// EvictionGrace delays teardown after the last unsubscribe so a quick
	// resubscribe does not trigger a refetch storm. Defaults to 5s.
	EvictionGrace time.Duration
}

type entry struct {
	key   string
	fetch Fetch
	opts  Options

	value     any
	hasValue  bool
	err       error
	updatedAt time.Time

	issued   uint64 // sequence stamped on the most recently issued fetch
	inflight int

	waiters []chan Result

	subs       map[*Subscription]struct{}
	evictTimer *time.Timer
	ticker     *time.Ticker
	tickerStop chan struct{}
}

type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	fetches   *prometheus.CounterVec // labels: key, result
	coalesced prometheus.Counter
}

func New(logger *slog.Logger, fetches *prometheus.CounterVec, coalesced prometheus.Counter) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		entries:   make(map[string]*entry),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		fetches:   fetches,
		coalesced: coalesced,
	}
}

// Register installs the fetcher and options for a key. Registering an
// already-known key only updates the fetcher.
func (s *Store) Register(key string, fetch Fetch, opts Options) {
	if opts.EvictionGrace <= 0 {
		opts.EvictionGrace = defaultEvictionGrace
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[key]
	if e == nil {
		e = &entry{key: key, subs: make(map[*Subscription]struct{})}
		s.entries[key] = e
	}
	e.fetch = fetch
	e.opts = opts
}

// Snapshot returns the entry's current state without triggering a fetch.
func (s *Store) Snapshot(key string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[key]
	if e == nil {
		return Result{}
	}
	return snapshotLocked(e)
}

// Get returns the cached value for key, fetching first if the entry has
// never loaded. A Get that joins an in-flight fetch waits for that same
// fetch; it never issues a duplicate request.
func (s *Store) Get(ctx context.Context, key string) Result {
	s.mu.Lock()
	e := s.entries[key]
	if e == nil || e.fetch == nil {
		s.mu.Unlock()
		return Result{}
	}
	if e.hasValue {
		res := snapshotLocked(e)
		s.mu.Unlock()
		return res
	}

	if e.inflight == 0 {
		s.startFetchLocked(e)
	} else {
		s.countCoalesced()
	}
	wait := make(chan Result, 1)
	e.waiters = append(e.waiters, wait)
	s.mu.Unlock()

	select {
	case res := <-wait:
		return res
	case <-ctx.Done():
		return s.Snapshot(key)
	}
}

// Refresh revalidates a key in the background. If a fetch is already in
// flight the call coalesces into it instead of issuing another request.
func (s *Store) Refresh(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[key]
	if e == nil || e.fetch == nil {
		return
	}
	if e.inflight > 0 {
		s.countCoalesced()
		return
	}
	s.startFetchLocked(e)
}

// Invalidate forces a refetch now, superseding any fetch already in
// flight: the older response will be discarded when it arrives. Consumers
// keep seeing the previous value until the new fetch lands.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[key]
	if e == nil || e.fetch == nil {
		return
	}
	s.startFetchLocked(e)
}

// RevalidateAll refreshes every registered key. Wired to browser focus and
// reconnect events.
func (s *Store) RevalidateAll() {
	s.mu.Lock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	s.mu.Unlock()
	for _, key := range keys {
		s.Refresh(key)
	}
}

// Close stops background revalidation and releases all entries.
func (s *Store) Close() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		stopTickerLocked(e)
		if e.evictTimer != nil {
			e.evictTimer.Stop()
		}
		delete(s.entries, key)
	}
}

// startFetchLocked stamps a new sequence number and launches the fetch.
// Callers hold s.mu.
func (s *Store) startFetchLocked(e *entry) {
	e.issued++
	seq := e.issued
	e.inflight++
	go s.runFetch(e, seq)
}

func (s *Store) runFetch(e *entry, seq uint64) {
	value, err := e.fetch(s.ctx)

	s.mu.Lock()
	e.inflight--

	// A later fetch was issued while this one was in flight; its result
	// wins, ours is stale on arrival.
	if seq != e.issued {
		s.mu.Unlock()
		s.countFetch(e.key, resultDiscarded)
		return
	}

	if err != nil {
		e.err = err
	} else {
		e.value = value
		e.hasValue = true
		e.err = nil
		e.updatedAt = time.Now()
	}

	if s.entries[e.key] != e {
		// Evicted while in flight; nobody is interested in this result.
		s.mu.Unlock()
		s.countFetch(e.key, resultDiscarded)
		return
	}

	res := snapshotLocked(e)
	waiters := e.waiters
	e.waiters = nil
	subs := make([]*Subscription, 0, len(e.subs))
	for sub := range e.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	if err != nil {
		s.countFetch(e.key, resultError)
		s.logger.Warn("cache fetch failed", "key", e.key, "error", err)
	} else {
		s.countFetch(e.key, resultSuccess)
	}

	for _, wait := range waiters {
		wait <- res
	}
	for _, sub := range subs {
		sub.push(res)
	}
}

func snapshotLocked(e *entry) Result {
	return Result{
		Value:     e.value,
		Loading:   e.inflight > 0,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
	}
}

func stopTickerLocked(e *entry) {
	if e.ticker == nil {
		return
	}
	e.ticker.Stop()
	close(e.tickerStop)
	e.ticker = nil
	e.tickerStop = nil
}

func (s *Store) countFetch(key, result string) {
	if s.fetches != nil {
		s.fetches.WithLabelValues(key, result).Inc()
	}
}

func (s *Store) countCoalesced() {
	if s.coalesced != nil {
		s.coalesced.Inc()
	}
}

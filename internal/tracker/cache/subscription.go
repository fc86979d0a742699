package cache

import "time"

// Subscription is live interest in a key. Updates delivers a Result after
// every applied fetch; the channel keeps only the latest unread value, so a
// slow consumer observes the newest state rather than a backlog.
type Subscription struct {
	store  *Store
	key    string
	ch     chan Result
	closed bool
}

// Subscribe registers interest in a key and triggers an initial fetch when
// the entry has never loaded. While at least one subscriber exists the
// key's RefreshInterval ticker runs; the last Close starts the eviction
// grace timer instead of tearing the entry down immediately.
func (s *Store) Subscribe(key string) *Subscription {
	sub := &Subscription{store: s, key: key, ch: make(chan Result, 1)}

	s.mu.Lock()
	e := s.entries[key]
	if e == nil || e.fetch == nil {
		s.mu.Unlock()
		sub.closed = true
		close(sub.ch)
		return sub
	}

	e.subs[sub] = struct{}{}
	if e.evictTimer != nil {
		e.evictTimer.Stop()
		e.evictTimer = nil
	}
	if e.ticker == nil && e.opts.RefreshInterval > 0 {
		e.ticker = time.NewTicker(e.opts.RefreshInterval)
		e.tickerStop = make(chan struct{})
		go s.revalidateLoop(key, e.ticker, e.tickerStop)
	}
	needsFetch := !e.hasValue && e.inflight == 0
	if needsFetch {
		s.startFetchLocked(e)
	}
	s.mu.Unlock()

	return sub
}

func (s *Store) revalidateLoop(key string, ticker *time.Ticker, stop chan struct{}) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.Refresh(key)
		}
	}
}

// Updates streams entry state changes. The channel is closed by Close.
func (sub *Subscription) Updates() <-chan Result {
	return sub.ch
}

// Snapshot reads the subscribed entry's current state.
func (sub *Subscription) Snapshot() Result {
	return sub.store.Snapshot(sub.key)
}

// Close withdraws interest. Results arriving after Close are not delivered
// to this subscriber. When no subscribers remain the entry is evicted
// after the grace period, unless someone resubscribes first.
func (sub *Subscription) Close() {
	s := sub.store
	s.mu.Lock()
	if sub.closed {
		s.mu.Unlock()
		return
	}
	sub.closed = true
	e := s.entries[sub.key]
	if e != nil {
		delete(e.subs, sub)
		if len(e.subs) == 0 {
			key := sub.key
			e.evictTimer = time.AfterFunc(e.opts.EvictionGrace, func() {
				s.evictIfIdle(key)
			})
		}
	}
	close(sub.ch)
	s.mu.Unlock()
}

// push delivers a result without blocking; callers must not hold s.mu.
func (sub *Subscription) push(res Result) {
	s := sub.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.closed {
		return
	}
	// Drop the unread previous value so the latest always fits.
	select {
	case sub.ch <- res:
	default:
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- res:
		default:
		}
	}
}

func (s *Store) evictIfIdle(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[key]
	if e == nil || len(e.subs) > 0 {
		return
	}
	stopTickerLocked(e)
	delete(s.entries, key)
}

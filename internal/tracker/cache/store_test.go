package cache

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestStore() *Store {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return New(logger, nil, nil)
}

func TestGet_FetchesOnceForConcurrentCallers(t *testing.T) {
	store := newTestStore()
	defer store.Close()

	var calls atomic.Int32
	release := make(chan struct{})
	store.Register("products", func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "v1", nil
	}, Options{})

	const callers = 8
	results := make(chan Result, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.Get(context.Background(), "products")
		}()
	}

	// Let every caller reach the store before the fetch completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	if got := calls.Load(); got != 1 {
		t.Fatalf("want a single coalesced fetch, got %d", got)
	}
	for res := range results {
		if res.Value != "v1" || res.Err != nil {
			t.Fatalf("unexpected result: %+v", res)
		}
	}
}

func TestInvalidate_SupersededResultIsDiscarded(t *testing.T) {
	store := newTestStore()
	defer store.Close()

	firstStarted := make(chan struct{})
	firstRelease := make(chan struct{})
	var calls atomic.Int32
	store.Register("products", func(ctx context.Context) (any, error) {
		n := calls.Add(1)
		if n == 1 {
			close(firstStarted)
			<-firstRelease
			return "old", nil
		}
		return "new", nil
	}, Options{})

	store.Refresh("products")
	<-firstStarted

	// The second fetch is issued while the first is still in flight and
	// finishes immediately.
	store.Invalidate("products")
	waitForValue(t, store, "products", "new")

	// The first fetch now lands late; its value must not overwrite.
	close(firstRelease)
	time.Sleep(50 * time.Millisecond)

	if res := store.Snapshot("products"); res.Value != "new" {
		t.Fatalf("stale first response applied, value = %v", res.Value)
	}
}

func TestFailedFetchRetainsLastValue(t *testing.T) {
	store := newTestStore()
	defer store.Close()

	fetchErr := errors.New("backend down")
	var fail atomic.Bool
	store.Register("products", func(ctx context.Context) (any, error) {
		if fail.Load() {
			return nil, fetchErr
		}
		return "good", nil
	}, Options{})

	if res := store.Get(context.Background(), "products"); res.Value != "good" {
		t.Fatalf("unexpected first result: %+v", res)
	}

	fail.Store(true)
	store.Refresh("products")
	waitForErr(t, store, "products")

	res := store.Snapshot("products")
	if res.Value != "good" {
		t.Fatalf("failed fetch must keep last value, got %v", res.Value)
	}
	if !errors.Is(res.Err, fetchErr) {
		t.Fatalf("want fetch error surfaced, got %v", res.Err)
	}

	// A later success clears the error again.
	fail.Store(false)
	store.Refresh("products")
	waitFor(t, func() bool { return store.Snapshot("products").Err == nil })
}

func TestRefresh_CoalescesIntoInflightFetch(t *testing.T) {
	store := newTestStore()
	defer store.Close()

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	store.Register("products", func(ctx context.Context) (any, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return "v", nil
	}, Options{})

	store.Refresh("products")
	<-started
	store.Refresh("products")
	store.Refresh("products")
	close(release)
	waitForValue(t, store, "products", "v")

	if got := calls.Load(); got != 1 {
		t.Fatalf("refresh during in-flight fetch must coalesce, got %d calls", got)
	}
}

func TestGet_UnknownKey(t *testing.T) {
	store := newTestStore()
	defer store.Close()

	res := store.Get(context.Background(), "nope")
	if res.Value != nil || res.Err != nil || res.Loading {
		t.Fatalf("unknown key must yield zero result, got %+v", res)
	}
}

func TestSubscribe_DeliversUpdates(t *testing.T) {
	store := newTestStore()
	defer store.Close()

	var calls atomic.Int32
	store.Register("products", func(ctx context.Context) (any, error) {
		return int(calls.Add(1)), nil
	}, Options{})

	sub := store.Subscribe("products")
	defer sub.Close()

	select {
	case res := <-sub.Updates():
		if res.Value != 1 {
			t.Fatalf("unexpected initial update: %+v", res)
		}
	case <-time.After(time.Second):
		t.Fatal("no initial update delivered")
	}

	store.Invalidate("products")
	select {
	case res := <-sub.Updates():
		if res.Value != 2 {
			t.Fatalf("unexpected second update: %+v", res)
		}
	case <-time.After(time.Second):
		t.Fatal("no update after invalidation")
	}
}

func TestSubscribe_TickerRevalidates(t *testing.T) {
	store := newTestStore()
	defer store.Close()

	var calls atomic.Int32
	store.Register("products", func(ctx context.Context) (any, error) {
		return int(calls.Add(1)), nil
	}, Options{RefreshInterval: 20 * time.Millisecond})

	sub := store.Subscribe("products")
	defer sub.Close()

	waitFor(t, func() bool { return calls.Load() >= 3 })
}

func TestEviction_AfterGraceWithoutSubscribers(t *testing.T) {
	store := newTestStore()
	defer store.Close()

	store.Register("product:1", func(ctx context.Context) (any, error) {
		return "v", nil
	}, Options{EvictionGrace: 20 * time.Millisecond})

	sub := store.Subscribe("product:1")
	waitForValue(t, store, "product:1", "v")
	sub.Close()

	waitFor(t, func() bool {
		store.mu.Lock()
		_, ok := store.entries["product:1"]
		store.mu.Unlock()
		return !ok
	})
}

func TestEviction_CancelledByResubscribe(t *testing.T) {
	store := newTestStore()
	defer store.Close()

	store.Register("product:1", func(ctx context.Context) (any, error) {
		return "v", nil
	}, Options{EvictionGrace: 50 * time.Millisecond})

	first := store.Subscribe("product:1")
	waitForValue(t, store, "product:1", "v")
	first.Close()

	second := store.Subscribe("product:1")
	defer second.Close()

	time.Sleep(100 * time.Millisecond)
	store.mu.Lock()
	_, ok := store.entries["product:1"]
	store.mu.Unlock()
	if !ok {
		t.Fatal("resubscribe within the grace period must cancel eviction")
	}
}

func TestClosedSubscriptionReceivesNothing(t *testing.T) {
	store := newTestStore()
	defer store.Close()

	release := make(chan struct{})
	store.Register("products", func(ctx context.Context) (any, error) {
		<-release
		return "late", nil
	}, Options{EvictionGrace: time.Minute})

	sub := store.Subscribe("products")
	sub.Close()
	close(release)
	time.Sleep(50 * time.Millisecond)

	if _, ok := <-sub.Updates(); ok {
		t.Fatal("closed subscription must not deliver results")
	}
}

func TestRevalidateAll(t *testing.T) {
	store := newTestStore()
	defer store.Close()

	var a, b atomic.Int32
	store.Register("a", func(ctx context.Context) (any, error) { a.Add(1); return "a", nil }, Options{})
	store.Register("b", func(ctx context.Context) (any, error) { b.Add(1); return "b", nil }, Options{})

	store.RevalidateAll()
	waitFor(t, func() bool { return a.Load() == 1 && b.Load() == 1 })
}

func waitForValue(t *testing.T, store *Store, key string, want any) {
	t.Helper()
	waitFor(t, func() bool { return store.Snapshot(key).Value == want })
}

func waitForErr(t *testing.T, store *Store, key string) {
	t.Helper()
	waitFor(t, func() bool { return store.Snapshot(key).Err != nil })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

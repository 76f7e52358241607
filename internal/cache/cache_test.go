package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(ttl time.Duration) (*Store, *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := New(ttl)
	s.now = c.now
	return s, c
}

func TestStoreGetSet(t *testing.T) {
	s, c := newTestStore(time.Minute)

	if _, ok := s.Get("a"); ok {
		t.Fatal("expected miss on empty store")
	}

	s.Set("a", 1)
	v, ok := s.Get("a")
	if !ok || v.(int) != 1 {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}

	c.advance(59 * time.Second)
	if _, ok := s.Get("a"); !ok {
		t.Error("expected entry to be fresh before TTL")
	}

	c.advance(time.Second)
	if _, ok := s.Get("a"); ok {
		t.Error("expected entry to expire at TTL")
	}
	if n := s.Stats().Entries; n != 0 {
		t.Errorf("expired entry not removed, %d entries", n)
	}
}

func TestStoreDisabled(t *testing.T) {
	s := New(0)
	if s.Enabled() {
		t.Fatal("store with zero TTL should be disabled")
	}

	s.Set("a", 1)
	if _, ok := s.Get("a"); ok {
		t.Error("disabled store returned a value")
	}

	var calls int
	for i := 0; i < 3; i++ {
		_, err := s.Do(context.Background(), "k", func(context.Context) (any, error) {
			calls++
			return calls, nil
		})
		if err != nil {
			t.Fatalf("Do failed: %v", err)
		}
	}
	if calls != 3 {
		t.Errorf("expected every Do to load, got %d loads", calls)
	}
	if st := s.Stats(); st.Enabled {
		t.Errorf("Stats = %+v, want disabled", st)
	}
}

func TestStoreDoCaches(t *testing.T) {
	s, c := newTestStore(time.Minute)

	var calls int
	load := func(context.Context) (any, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := s.Do(context.Background(), "k", load)
		if err != nil || v.(string) != "value" {
			t.Fatalf("Do = %v, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 load, got %d", calls)
	}

	c.advance(2 * time.Minute)
	if _, err := s.Do(context.Background(), "k", load); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("expected reload after expiry, got %d loads", calls)
	}

	st := s.Stats()
	if st.Hits != 2 || st.Misses != 2 {
		t.Errorf("Stats = %+v, want 2 hits and 2 misses", st)
	}
}

func TestStoreDoDoesNotCacheErrors(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	boom := errors.New("boom")

	var calls int
	load := func(context.Context) (any, error) {
		calls++
		return nil, boom
	}

	for i := 0; i < 2; i++ {
		if _, err := s.Do(context.Background(), "k", load); !errors.Is(err, boom) {
			t.Fatalf("Do error = %v, want boom", err)
		}
	}
	if calls != 2 {
		t.Errorf("expected errors not to be cached, got %d loads", calls)
	}
}

func TestStoreDoCoalesces(t *testing.T) {
	s, _ := newTestStore(time.Minute)

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]any, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.Do(context.Background(), "k", load)
			if err != nil {
				t.Errorf("Do failed: %v", err)
			}
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 load for concurrent callers, got %d", n)
	}
	for i, v := range results {
		if v != 42 {
			t.Errorf("result %d = %v, want 42", i, v)
		}
	}
}

func TestStoreDoCallerCancel(t *testing.T) {
	s, _ := newTestStore(time.Minute)

	release := make(chan struct{})
	loadCtxErr := make(chan error, 1)
	load := func(ctx context.Context) (any, error) {
		<-release
		loadCtxErr <- ctx.Err()
		return "late", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Do(ctx, "k", load)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Do error = %v, want context.Canceled", err)
	}

	close(release)
	if err := <-loadCtxErr; err != nil {
		t.Errorf("load context was cancelled: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		if v, ok := s.Get("k"); ok {
			if v != "late" {
				t.Errorf("Get(k) = %v, want late", v)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("load result was not stored")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestStorePurge(t *testing.T) {
	s, c := newTestStore(time.Minute)
	s.Set("old", 1)
	c.advance(30 * time.Second)
	s.Set("new", 2)
	c.advance(45 * time.Second)

	if n := s.Purge(); n != 1 {
		t.Errorf("Purge removed %d, want 1", n)
	}
	if _, ok := s.Get("new"); !ok {
		t.Error("fresh entry was purged")
	}
}

func TestStoreJanitorStops(t *testing.T) {
	s := New(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Janitor(ctx, time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Janitor did not stop after cancel")
	}
}

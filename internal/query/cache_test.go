package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestGetCachesUntilInvalidate(t *testing.T) {
	c := New()
	ctx := context.Background()
	calls := 0

	fetch := func(ctx context.Context) (int, error) {
		calls++
		return 40 + calls, nil
	}

	v, err := Fetch(ctx, c, "problem/1", fetch)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if v != 41 {
		t.Fatalf("expected 41, got %d", v)
	}

	v, err = Fetch(ctx, c, "problem/1", fetch)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if v != 41 || calls != 1 {
		t.Fatalf("expected cached value with one call, got v=%d calls=%d", v, calls)
	}

	c.Invalidate("problem/1")
	v, err = Fetch(ctx, c, "problem/1", fetch)
	if err != nil {
		t.Fatalf("fetch after invalidate: %v", err)
	}
	if v != 42 || calls != 2 {
		t.Fatalf("expected refetch after invalidate, got v=%d calls=%d", v, calls)
	}
}

func TestFailedFetchIsNotCached(t *testing.T) {
	c := New()
	ctx := context.Background()
	calls := 0

	_, err := Fetch(ctx, c, "summaries", func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("boom")
		}
		return "ok", nil
	})
	if err == nil {
		t.Fatalf("expected first fetch to fail")
	}

	v, err := Fetch(ctx, c, "summaries", func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("boom")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if v != "ok" || calls != 2 {
		t.Fatalf("expected retry to succeed, got v=%q calls=%d", v, calls)
	}
}

func TestConcurrentGetsShareOneFlight(t *testing.T) {
	c := New()
	ctx := context.Background()
	var calls atomic.Int32
	release := make(chan struct{})

	fetch := func(ctx context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := Fetch(ctx, c, "summaries", fetch)
			if err != nil {
				t.Errorf("fetch %d: %v", i, err)
				return
			}
			results[i] = v
		}(i)
	}
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one fetch, got %d", got)
	}
	for i, v := range results {
		if v != "shared" {
			t.Fatalf("result %d = %q", i, v)
		}
	}
}

func TestInvalidateUnknownKeyIsNoop(t *testing.T) {
	c := New()
	c.Invalidate("missing")
	if _, ok := c.Peek("missing"); ok {
		t.Fatalf("expected no entry")
	}
}

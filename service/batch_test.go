package service

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunBatchesPreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	results, err := RunBatches(context.Background(), items, func(ctx context.Context, n int) (int, error) {
		// Randomized latency so completion order differs from input order
		time.Sleep(time.Duration(rand.Intn(20)) * time.Millisecond)
		return n * 2, nil
	}, BatchOptions{BatchSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{2, 4, 6, 8, 10}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("results[%d] = %d, want %d", i, results[i], want[i])
		}
	}
}

func TestRunBatchesBoundsConcurrency(t *testing.T) {
	var inFlight, peak int64
	items := make([]int, 12)

	_, err := RunBatches(context.Background(), items, func(ctx context.Context, n int) (int, error) {
		cur := atomic.AddInt64(&inFlight, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return 0, nil
	}, BatchOptions{BatchSize: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p := atomic.LoadInt64(&peak); p > 3 {
		t.Errorf("peak concurrency %d exceeds batch size 3", p)
	}
}

func TestRunBatchesFirstErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	items := []int{1, 2, 3, 4, 5, 6}
	var calls int64

	_, err := RunBatches(context.Background(), items, func(ctx context.Context, n int) (int, error) {
		atomic.AddInt64(&calls, 1)
		if n == 2 {
			return 0, boom
		}
		return n, nil
	}, BatchOptions{BatchSize: 2})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	// The failing batch completes but later batches never start
	if c := atomic.LoadInt64(&calls); c != 2 {
		t.Errorf("expected 2 calls, got %d", c)
	}
}

func TestRunBatchesEmptyInput(t *testing.T) {
	results, err := RunBatches(context.Background(), nil, func(ctx context.Context, n int) (int, error) {
		t.Fatal("fn should not be called")
		return 0, nil
	}, BatchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %v", results)
	}
}

func TestRunBatchesCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunBatches(ctx, []int{1, 2}, func(ctx context.Context, n int) (int, error) {
		return n, nil
	}, BatchOptions{BatchSize: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWithRetrySucceedsFirstTry(t *testing.T) {
	var calls int
	result, err := WithRetry(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	}, RetryOptions{MaxRetries: 3, BaseDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("result=%q calls=%d, want ok/1", result, calls)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	var calls int

	started := time.Now()
	_, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, boom
	}, RetryOptions{MaxRetries: 3, BaseDelay: 10 * time.Millisecond, OnRetry: func(error, int) {}})

	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	// Backoff between attempts: 10ms + 20ms
	if elapsed := time.Since(started); elapsed < 30*time.Millisecond {
		t.Errorf("expected at least 30ms of backoff, elapsed %v", elapsed)
	}
}

func TestWithRetryRecoversAfterFailures(t *testing.T) {
	var calls int
	result, err := WithRetry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	}, RetryOptions{MaxRetries: 5, BaseDelay: time.Millisecond, OnRetry: func(error, int) {}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 || calls != 3 {
		t.Errorf("result=%d calls=%d, want 42/3", result, calls)
	}
}

func TestWithRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	_, err := WithRetry(ctx, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("transient")
	}, RetryOptions{MaxRetries: 5, BaseDelay: time.Hour, OnRetry: func(error, int) {}})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt before cancel, got %d", calls)
	}
}

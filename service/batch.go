package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// BatchOptions controls how RunBatches fans work out
type BatchOptions struct {
	BatchSize     int
	OperationName string
}

// RunBatches runs fn over items in fixed-size sequential batches. Within a
// batch every item runs concurrently; results always come back in input
// order. Batch K+1 never starts before batch K has fully completed, which
// bounds the number of simultaneous outbound provider calls.
//
// A single failing item aborts the whole run. Call sites that need
// per-item tolerance catch inside fn and encode failure as a sentinel value.
func RunBatches[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), opts BatchOptions) ([]R, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 3
	}
	name := opts.OperationName
	if name == "" {
		name = "batch"
	}

	results := make([]R, len(items))

	for start := 0; start < len(items); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(items) {
			end = len(items)
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batchStart := time.Now()
		errs := make([]error, end-start)

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i-start] = fn(ctx, items[i])
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}

		log.Printf("[%s] batch %d-%d of %d done in %v", name, start+1, end, len(items), time.Since(batchStart).Round(time.Millisecond))
	}

	return results, nil
}

// RetryOptions controls WithRetry behavior
type RetryOptions struct {
	MaxRetries int
	BaseDelay  time.Duration
	OnRetry    func(err error, attempt int)
}

// WithRetry attempts op up to MaxRetries times, sleeping
// BaseDelay * 2^(attempt-1) between attempts. The last error is returned
// once retries are exhausted. All errors are treated identically.
func WithRetry[T any](ctx context.Context, op func(context.Context) (T, error), opts RetryOptions) (T, error) {
	var zero T

	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	onRetry := opts.OnRetry
	if onRetry == nil {
		onRetry = func(err error, attempt int) {
			log.Printf("Warning: attempt %d failed: %v", attempt, err)
		}
	}

	var lastErr error
	delay := opts.BaseDelay

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err
		onRetry(err, attempt)

		if attempt == opts.MaxRetries {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
		delay *= 2
	}

	return zero, lastErr
}

// Package retry implements the evaluator's retry-with-backoff policy
// (spec §4.3: "retry up to max_retries with exponential backoff
// min(2^(n-1), 10) seconds"), deliberately without jitter — unlike the
// teacher's worker-queue backoff, the evaluator must stay deterministic so
// the retry scenario in the testable properties (§8 scenario 6) reproduces.
package retry

import (
	"context"
	"time"
)

// Backoff returns the wait duration before attempt n (1-indexed: n=1 is the
// delay before the first retry, i.e. after the first failure).
func Backoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	seconds := 1 << (n - 1)
	if seconds > 10 {
		seconds = 10
	}
	return time.Duration(seconds) * time.Second
}

// Do calls fn up to maxAttempts times (the first call plus maxAttempts-1
// retries), sleeping Backoff(n) between attempts. It returns the last error
// if every attempt fails, or nil as soon as fn succeeds.
func Do(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

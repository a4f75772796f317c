// ABOUTME: Jittered exponential delay between LLM request attempts
// ABOUTME: Used by the generation backend; the pipeline itself never retries
package util

import (
	"math/rand/v2"
	"time"
)

// MaxRetryDelay caps any single wait between attempts
const MaxRetryDelay = 30 * time.Second

// RetryDelay returns base * 2^attempt, capped at limit, with ±25% jitter.
// A non-positive attempt or base yields zero. A non-positive limit uses MaxRetryDelay.
func RetryDelay(base time.Duration, attempt int, limit time.Duration) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}
	if limit <= 0 {
		limit = MaxRetryDelay
	}
	if attempt > 30 {
		attempt = 30
	}

	delay := base << uint(attempt)
	if delay <= 0 || delay > limit {
		delay = limit
	}

	quarter := delay / 4
	if quarter == 0 {
		return delay
	}
	return delay - quarter + time.Duration(rand.Int64N(int64(quarter)*2+1))
}

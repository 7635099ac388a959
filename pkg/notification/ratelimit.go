package notification

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// bucketLimit is the state Discord reports for one rate limit bucket.
type bucketLimit struct {
	Remaining int
	Reset     time.Time
}

// RateLimiter tracks Discord's per-webhook and global rate limit headers.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]bucketLimit
	global  time.Time
	log     *logrus.Entry
}

func NewRateLimiter(log *logrus.Entry) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]bucketLimit),
		log:     log.WithField("component", "rate_limiter"),
	}
}

// delay returns how long a request on bucket has to wait.
func (rl *RateLimiter) delay(bucket string, now time.Time) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Before(rl.global) {
		return rl.global.Sub(now)
	}

	if l, ok := rl.buckets[bucket]; ok && l.Remaining <= 0 && now.Before(l.Reset) {
		return l.Reset.Sub(now)
	}

	return 0
}

// Wait blocks until a request on bucket may be sent or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context, bucket string) error {
	d := rl.delay(bucket, time.Now())
	if d <= 0 {
		return nil
	}

	rl.log.Warnf("Bucket %s rate limited, waiting %v", bucket, d.Truncate(time.Millisecond))

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Update records the rate limit headers of a webhook response.
func (rl *RateLimiter) Update(bucket string, headers http.Header) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l := bucketLimit{Remaining: 1}
	if v, err := strconv.Atoi(headers.Get("X-RateLimit-Remaining")); err == nil {
		l.Remaining = v
	}
	if v, err := strconv.ParseFloat(headers.Get("X-RateLimit-Reset"), 64); err == nil {
		l.Reset = time.Unix(0, int64(v*float64(time.Second)))
	}

	if v, err := strconv.ParseFloat(headers.Get("Retry-After"), 64); err == nil {
		until := time.Now().Add(time.Duration(v * float64(time.Second)))
		if headers.Get("X-RateLimit-Global") == "true" {
			rl.global = until
			rl.log.Warnf("Global rate limit detected, locked until %v", until)
		} else {
			l.Remaining = 0
			l.Reset = until
		}
	}

	rl.buckets[bucket] = l
	rl.log.Tracef("Rate limit updated for bucket %s: %d remaining, resets at %v", bucket, l.Remaining, l.Reset)
}

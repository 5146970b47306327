package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrTooManyAttempts is returned once a client exhausts its credential
// submissions for the current window.
type ErrTooManyAttempts struct {
	RetryAfter time.Duration
}

func (e ErrTooManyAttempts) Error() string {
	return "too many login attempts"
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginRateLimiter throttles credential submissions per client key (the
// client IP) with a token bucket refilled at maxHits per window.
type LoginRateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	window    time.Duration
	byKey     map[string]*ipLimiter
	maxMemory int
	now       func() time.Time
}

func NewLoginRateLimiter(maxHits int, window time.Duration) *LoginRateLimiter {
	if maxHits <= 0 {
		maxHits = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return &LoginRateLimiter{
		limit:     rate.Limit(float64(maxHits) / window.Seconds()),
		burst:     maxHits,
		window:    window,
		byKey:     make(map[string]*ipLimiter),
		maxMemory: 5000,
		now:       time.Now,
	}
}

// Allow consumes one attempt for key. A nil limiter allows everything.
func (l *LoginRateLimiter) Allow(key string) error {
	if l == nil {
		return nil
	}
	allowed, retryAfter := l.allow(key, l.now())
	if !allowed {
		return ErrTooManyAttempts{RetryAfter: retryAfter}
	}
	return nil
}

func (l *LoginRateLimiter) allow(key string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.byKey[key]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		if delay < time.Second {
			delay = time.Second
		}
		return false, delay
	}

	if len(l.byKey) > l.maxMemory {
		threshold := now.Add(-l.window)
		for k, value := range l.byKey {
			if value.lastSeen.Before(threshold) {
				delete(l.byKey, k)
			}
		}
	}

	return true, 0
}

package auth

// login_limiter.go rate limits login attempts per email+IP pair so that a
// credential-stuffing run against one account cannot lock out other clients.

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter tracks a token bucket per email+IP pair. Buckets idle for
// longer than the prune interval are dropped to bound memory use.
type LoginLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*loginBucket
	perMin   rate.Limit
	burst    int
	lastSeen time.Duration
}

type loginBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewLoginLimiter allows attemptsPerMinute login attempts per email+IP pair,
// with a burst of the same size. attemptsPerMinute <= 0 disables limiting.
func NewLoginLimiter(attemptsPerMinute int32) *LoginLimiter {
	if attemptsPerMinute <= 0 {
		return nil
	}
	return &LoginLimiter{
		buckets:  make(map[string]*loginBucket),
		perMin:   rate.Limit(float64(attemptsPerMinute) / 60.0),
		burst:    int(attemptsPerMinute),
		lastSeen: 10 * time.Minute,
	}
}

// Allow reports whether a login attempt for the email from the IP may
// proceed. A nil limiter always allows.
func (l *LoginLimiter) Allow(email, ip string) bool {
	if l == nil {
		return true
	}

	key := email + "|" + ip
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		// opportunistic prune of stale buckets
		for k, old := range l.buckets {
			if now.Sub(old.seen) > l.lastSeen {
				delete(l.buckets, k)
			}
		}

		b = &loginBucket{limiter: rate.NewLimiter(l.perMin, l.burst), seen: now}
		l.buckets[key] = b
	}
	b.seen = now

	return b.limiter.Allow()
}

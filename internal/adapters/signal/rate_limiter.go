package signal

import (
	"sync"
	"time"

	"github.com/dkeye/callrelay/internal/domain"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type identityLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// InitiateLimiter is a token bucket per identity for call:initiate.
type InitiateLimiter struct {
	mu      sync.Mutex
	buckets map[domain.Identity]*identityLimiter
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

func NewInitiateLimiter(perSecond float64, burst int) *InitiateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &InitiateLimiter{
		buckets: make(map[domain.Identity]*identityLimiter),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
	}
}

func (rl *InitiateLimiter) Allow(id domain.Identity) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[id]
	if !ok {
		rl.prune(now)
		b = &identityLimiter{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[id] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// prune drops buckets untouched for a while; a fresh bucket is full, so nothing is lost.
func (rl *InitiateLimiter) prune(now time.Time) {
	for id, b := range rl.buckets {
		if now.Sub(b.lastSeen) > limiterIdleTTL {
			delete(rl.buckets, id)
		}
	}
}

func (rl *InitiateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

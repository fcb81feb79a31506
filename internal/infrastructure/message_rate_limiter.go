package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// SendLimiter paces outbound messages per messaging instance.
type SendLimiter struct {
	mu       sync.Mutex
	limiters map[uuid.UUID]*instanceLimiter
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
}

type instanceLimiter struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewSendLimiter creates a limiter allowing perSecond messages per instance
// with the given burst. A non-positive rate disables pacing.
func NewSendLimiter(perSecond float64, burst int) *SendLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &SendLimiter{
		limiters: make(map[uuid.UUID]*instanceLimiter),
		rate:     limit,
		burst:    burst,
		idleTTL:  10 * time.Minute,
	}
}

// Wait blocks until instanceID may send, or ctx is done.
func (l *SendLimiter) Wait(ctx context.Context, instanceID uuid.UUID) error {
	return l.get(instanceID).Wait(ctx)
}

func (l *SendLimiter) get(instanceID uuid.UUID) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.limiters[instanceID]
	if !ok {
		entry = &instanceLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[instanceID] = entry
	}
	entry.lastUsed = now
	return entry.limiter
}

// Cleanup removes limiters idle for longer than the idle TTL until ctx is done.
func (l *SendLimiter) Cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evictIdle(time.Now())
		}
	}
}

func (l *SendLimiter) evictIdle(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, entry := range l.limiters {
		if now.Sub(entry.lastUsed) > l.idleTTL {
			delete(l.limiters, id)
			removed++
		}
	}
	return removed
}

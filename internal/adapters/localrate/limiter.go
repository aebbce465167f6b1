// Package localrate provides an in-process per-client rate limiter for
// development runs without Redis. It never reports a backing-store error.
package localrate

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter struct {
	mu       sync.Mutex
	clients  map[string]*rate.Limiter
	perSec   rate.Limit
	burst    int
	lastSeen map[string]time.Time
}

// NewLimiter allows roughly limit requests per window per client key.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		clients:  make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		perSec:   rate.Limit(float64(limit) / window.Seconds()),
		burst:    limit,
	}
}

func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	lim, ok := l.clients[key]
	if !ok {
		lim = rate.NewLimiter(l.perSec, l.burst)
		l.clients[key] = lim
	}
	l.lastSeen[key] = time.Now()
	l.prune()
	l.mu.Unlock()

	return lim.Allow(), nil
}

// prune drops limiters idle for over an hour. Caller holds the mutex.
func (l *Limiter) prune() {
	if len(l.clients) < 10000 {
		return
	}
	cutoff := time.Now().Add(-time.Hour)
	for key, seen := range l.lastSeen {
		if seen.Before(cutoff) {
			delete(l.clients, key)
			delete(l.lastSeen, key)
		}
	}
}

// Package ratelimit keeps one token bucket per client key.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter hands out per-key limiters with a shared rate and burst. Keys idle for longer
// than idleTTL are evicted on the next sweep.
type Limiter struct {
	mu      sync.Mutex
	m       map[string]*entry
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

// New builds a limiter. A non-positive rps disables limiting.
func New(rps float64, burst int, idleTTL time.Duration) *Limiter {
	if burst < 1 {
		burst = 1
	}
	lim := rate.Limit(rps)
	if rps <= 0 {
		lim = rate.Inf
	}
	return &Limiter{
		m:       make(map[string]*entry),
		rps:     lim,
		burst:   burst,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	e, ok := l.m[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.rps, l.burst)}
		l.m[key] = e
	}
	e.seen = now
	lim := e.lim
	l.mu.Unlock()
	return lim.AllowN(now, 1)
}

// Sweep drops keys idle for longer than the configured TTL and returns how many were removed.
func (l *Limiter) Sweep() int {
	if l.idleTTL <= 0 {
		return 0
	}
	cutoff := l.now().Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, e := range l.m {
		if e.seen.Before(cutoff) {
			delete(l.m, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

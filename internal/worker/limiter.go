package worker

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxIdleClients is the client count above which idle limiters are pruned
const maxIdleClients = 1024

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter implements per-client rate limiting
type Limiter struct {
	limiters     map[string]*clientLimiter
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
	idleAfter    time.Duration
	now          func() time.Time
}

// NewLimiter creates a limiter allowing requestsPerSecond per client with
// the given burst. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*clientLimiter),
		defaultRate:  limit,
		defaultBurst: burst,
		idleAfter:    10 * time.Minute,
		now:          time.Now,
	}
}

// Allow reports whether client may make a request now
func (l *Limiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cl, ok := l.limiters[client]
	if !ok {
		if len(l.limiters) >= maxIdleClients {
			l.pruneLocked(now)
		}
		cl = &clientLimiter{limiter: rate.NewLimiter(l.defaultRate, l.defaultBurst)}
		l.limiters[client] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// SetClientRate sets a custom limit for one client
func (l *Limiter) SetClientRate(client string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.limiters[client] = &clientLimiter{
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		lastSeen: l.now(),
	}
}

// Clients returns the number of tracked clients
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// pruneLocked forgets clients idle for longer than idleAfter
func (l *Limiter) pruneLocked(now time.Time) {
	for client, cl := range l.limiters {
		if now.Sub(cl.lastSeen) > l.idleAfter {
			delete(l.limiters, client)
		}
	}
}

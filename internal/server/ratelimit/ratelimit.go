// Package ratelimit limits requests per client and endpoint with token buckets.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Info describes the limit state reported back to the client.
type Info struct {
	Allowed    bool
	Limit      int // bucket size; 0 means unlimited
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

type bucket struct {
	lim        *rate.Limiter
	lastAccess time.Time
}

// Limiter manages one rate.Limiter per client, endpoint and method.
type Limiter struct {
	config  *Config
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a limiter and starts its idle-bucket cleanup loop.
// A nil config disables limiting.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{}
	}
	l := &Limiter{
		config:  config,
		buckets: make(map[string]*bucket),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanup(config.CleanupInterval)
	}
	return l
}

// Allow consumes a token for clientID on endpoint and method.
func (l *Limiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}

	ec := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if ec == nil {
		ec = &EndpointConfig{Rate: l.config.DefaultRate, Burst: l.config.DefaultBurst}
		// Unmatched paths share one bucket per client.
		endpoint, method = "*", "*"
	}
	if ec.Rate <= 0 {
		return true, Info{Allowed: true}
	}
	burst := ec.Burst
	if burst <= 0 {
		burst = max(1, int(ec.Rate))
	}

	now := l.now()
	lim := l.limiter(clientID+":"+endpoint+":"+method, rate.Limit(ec.Rate), burst, now)

	info := Info{Limit: burst}
	if lim.AllowN(now, 1) {
		info.Allowed = true
	} else {
		deficit := 1 - lim.TokensAt(now)
		info.RetryAfter = time.Duration(math.Ceil(deficit/ec.Rate*1000)) * time.Millisecond
	}

	tokens := lim.TokensAt(now)
	info.Remaining = max(0, int(tokens))
	info.ResetTime = now.Add(time.Duration((float64(burst) - tokens) / ec.Rate * float64(time.Second)))
	return info.Allowed, info
}

func (l *Limiter) limiter(key string, r rate.Limit, burst int, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(r, burst)}
		l.buckets[key] = b
	}
	b.lastAccess = now
	return b.lim
}

func (l *Limiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stop:
			return
		}
	}
}

// evictIdle drops buckets untouched for longer than IdleTTL.
func (l *Limiter) evictIdle() int {
	ttl := l.config.IdleTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	cutoff := l.now().Add(-ttl)

	l.mu.Lock()
	defer l.mu.Unlock()
	evicted := 0
	for key, b := range l.buckets {
		if b.lastAccess.Before(cutoff) {
			delete(l.buckets, key)
			evicted++
		}
	}
	return evicted
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

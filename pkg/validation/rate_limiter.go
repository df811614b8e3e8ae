package validation

import (
	"sync"
	"time"
)

// RateLimiter implements a token bucket rate limiter per client key
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	clients     map[string]*clientLimiter
	mu          sync.Mutex
	cleanupTick *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

// clientLimiter tracks rate limiting state for a single client
type clientLimiter struct {
	tokens     int
	lastRefill time.Time
	lastSeen   time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a new rate limiter allowing maxRequests per window
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		clients:     make(map[string]*clientLimiter),
		done:        make(chan struct{}),
	}

	// Start cleanup goroutine to remove inactive clients
	rl.cleanupTick = time.NewTicker(window)
	go rl.cleanup()

	return rl
}

// Allow checks if a request should be allowed for the given client key
func (rl *RateLimiter) Allow(clientID string) bool {
	now := time.Now()

	rl.mu.Lock()
	limiter, exists := rl.clients[clientID]
	if !exists {
		limiter = &clientLimiter{
			tokens:     rl.maxRequests,
			lastRefill: now,
		}
		rl.clients[clientID] = limiter
	}
	rl.mu.Unlock()

	return limiter.consume(now, rl.maxRequests, rl.window)
}

// consume refills proportionally to elapsed time, then takes one token
func (cl *clientLimiter) consume(now time.Time, maxTokens int, window time.Duration) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cl.lastSeen = now
	elapsed := now.Sub(cl.lastRefill)
	if elapsed > 0 && cl.tokens < maxTokens {
		tokensToAdd := int(float64(maxTokens) * float64(elapsed) / float64(window))
		if tokensToAdd > 0 {
			cl.tokens = min(cl.tokens+tokensToAdd, maxTokens)
			cl.lastRefill = now
		}
	}

	if cl.tokens > 0 {
		cl.tokens--
		return true
	}
	return false
}

// cleanup removes inactive clients to prevent unbounded growth
func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.removeInactiveClients(time.Now())
		case <-rl.done:
			return
		}
	}
}

// removeInactiveClients drops clients idle for more than two windows
func (rl *RateLimiter) removeInactiveClients(now time.Time) {
	cutoff := now.Add(-2 * rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for clientID, limiter := range rl.clients {
		limiter.mu.Lock()
		idle := limiter.lastSeen.Before(cutoff)
		limiter.mu.Unlock()
		if idle {
			delete(rl.clients, clientID)
		}
	}
}

// Clients returns the number of tracked client keys
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.done)
		rl.cleanupTick.Stop()
	})
}

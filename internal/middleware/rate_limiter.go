package middleware

import (
	"sync"
	"time"
)

// RateLimiter is a fixed-window limiter keyed by user id and client IP.
type RateLimiter struct {
	userWindows map[uint]*window
	ipWindows   map[string]*window
	mu          sync.Mutex

	userMaxRequests int
	ipMaxRequests   int
	period          time.Duration
	now             func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	requests  int
	resetTime time.Time
}

// NewRateLimiter allows userMaxRequests per user and ipMaxRequests per IP
// in every period. Call Stop to end the cleanup goroutine.
func NewRateLimiter(userMaxRequests, ipMaxRequests int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		userWindows:     make(map[uint]*window),
		ipWindows:       make(map[string]*window),
		userMaxRequests: userMaxRequests,
		ipMaxRequests:   ipMaxRequests,
		period:          period,
		now:             time.Now,
		stop:            make(chan struct{}),
	}

	go rl.cleanup(5 * time.Minute)

	return rl
}

// CheckUserLimit counts one request for userID and reports whether it is allowed.
func (rl *RateLimiter) CheckUserLimit(userID uint) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return hit(rl.userWindows, userID, rl.now(), rl.period, rl.userMaxRequests)
}

// CheckIPLimit counts one request for ip and reports whether it is allowed.
func (rl *RateLimiter) CheckIPLimit(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return hit(rl.ipWindows, ip, rl.now(), rl.period, rl.ipMaxRequests)
}

func hit[K comparable](windows map[K]*window, key K, now time.Time, period time.Duration, max int) bool {
	w, exists := windows[key]
	if !exists || now.After(w.resetTime) {
		windows[key] = &window{requests: 1, resetTime: now.Add(period)}
		return true
	}
	if w.requests >= max {
		return false
	}
	w.requests++
	return true
}

// GetUserRemaining returns remaining requests for user
func (rl *RateLimiter) GetUserRemaining(userID uint) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return rl.remaining(rl.userWindows[userID], rl.userMaxRequests)
}

// GetIPRemaining returns remaining requests for IP
func (rl *RateLimiter) GetIPRemaining(ip string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return rl.remaining(rl.ipWindows[ip], rl.ipMaxRequests)
}

func (rl *RateLimiter) remaining(w *window, max int) int {
	if w == nil || rl.now().After(w.resetTime) {
		return max
	}
	if left := max - w.requests; left > 0 {
		return left
	}
	return 0
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictExpired()
		}
	}
}

func (rl *RateLimiter) evictExpired() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for userID, w := range rl.userWindows {
		if now.After(w.resetTime) {
			delete(rl.userWindows, userID)
		}
	}
	for ip, w := range rl.ipWindows {
		if now.After(w.resetTime) {
			delete(rl.ipWindows, ip)
		}
	}
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Reset clears all rate limits (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.userWindows = make(map[uint]*window)
	rl.ipWindows = make(map[string]*window)
}

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/examsecure/examsecure-backend/internal/response"
)

// staleAfter is how long an idle client entry survives before the sweeper
// drops it.
const staleAfter = 3 * time.Minute

// RateLimiter caps requests per client IP inside a fixed window. It guards
// the login and exam-start endpoints, both of which accept a password.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	clients map[string]*windowCount
}

type windowCount struct {
	count    int
	start    time.Time
	lastSeen time.Time
}

// NewRateLimiter allows limit requests per window for each client IP. The
// background sweeper runs for the life of the process.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*windowCount),
	}
	go rl.sweep()
	return rl
}

// Middleware returns the gin handler enforcing the limit.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP(), time.Now()) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.clients[ip]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.clients[ip] = &windowCount{count: 1, start: now, lastSeen: now}
		return true
	}

	w.lastSeen = now
	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

func (rl *RateLimiter) sweep() {
	for range time.Tick(time.Minute) {
		rl.mu.Lock()
		for ip, w := range rl.clients {
			if time.Since(w.lastSeen) > staleAfter {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vraj62023/MultimodalChatbot/pkg/utils"
)

// RateLimiter throttles requests per client IP. State is process-scoped
// and explicit: one token bucket per IP, pruned after idleTTL without
// traffic so the map cannot grow without bound.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows up to perMinute requests each minute with the
// given burst per client.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		idleTTL: 3 * time.Minute,
		clients: make(map[string]*client),
	}
}

// Handler wraps next, answering 429 once a client exhausts its bucket.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.allow(ip) {
			utils.RespondError(w, http.StatusTooManyRequests, "too many requests, please wait a minute")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now

	for key, other := range rl.clients {
		if key != ip && now.Sub(other.lastSeen) > rl.idleTTL {
			delete(rl.clients, key)
		}
	}

	return c.limiter.Allow()
}

// clientIP prefers the address chi's RealIP middleware rewrote into
// RemoteAddr, falling back to the raw value when it has no port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

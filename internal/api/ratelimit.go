package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates an empty RateLimiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{visitors: make(map[string]*visitor)}
}

// Allow reports whether key may make another request under a limit of
// perMinute requests per minute, bursting up to perMinute.
func (rl *RateLimiter) Allow(key string, perMinute int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

// Cleanup forgets keys idle for longer than idle. Returns how many were dropped.
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-idle)
	n := 0
	for k, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, k)
			n++
		}
	}
	return n
}

// Endpoint classes for rate limiting.
const (
	classIngest = "ingest"
	classOther  = "other"
)

// classifyEndpoint returns the endpoint class of a request.
func classifyEndpoint(r *http.Request) string {
	if r.Method == http.MethodPost && r.URL.Path == "/api/registrar" {
		return classIngest
	}
	return classOther
}

// rateLimitMiddleware limits /api routes per client IP. Rejections are
// recorded in the store and counted in metrics.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}
		class := classifyEndpoint(r)
		limit := s.config.RateLimitOther
		if class == classIngest {
			limit = s.config.RateLimitIngest
		}
		if limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ip := clientIP(r)
		if !s.rateLimiter.Allow(class+":"+ip, limit) {
			s.metrics.RecordRateLimited()
			if err := s.store.InsertRateLimitEvent(ip, class); err != nil {
				logFor(r.Context()).Error("log rate limit event", "err", err)
			}
			writeError(w, http.StatusTooManyRequests, "limite de requisicoes excedido")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client IP from the request, checking X-Forwarded-For first.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First IP in the chain is the original client
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

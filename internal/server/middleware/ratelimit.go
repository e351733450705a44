package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/agentstation/astronauts/internal/server/response"
)

// RateLimiter implements fixed window rate limiting per client IP. Idle
// visitors expire from the underlying cache on their own.
type RateLimiter struct {
	visitors *gocache.Cache
	limit    int           // requests per window
	window   time.Duration // window length
	logger   *zerolog.Logger
	now      func() time.Time

	// trustProxy keys visitors by X-Forwarded-For instead of the peer address.
	trustProxy bool
}

// visitor tracks rate limit state for a single IP.
type visitor struct {
	mu        sync.Mutex
	tokens    int
	lastReset time.Time
}

// NewRateLimiter creates a new rate limiter.
// limit is requests per minute per IP. trustProxy should only be set when
// every request arrives through a proxy that overwrites X-Forwarded-For.
func NewRateLimiter(limit int, trustProxy bool, logger *zerolog.Logger) *RateLimiter {
	rl := newRateLimiter(limit, time.Minute, logger)
	rl.trustProxy = trustProxy
	return rl
}

func newRateLimiter(limit int, window time.Duration, logger *zerolog.Logger) *RateLimiter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &RateLimiter{
		visitors: gocache.New(2*window, 5*window),
		limit:    limit,
		window:   window,
		logger:   logger,
		now:      time.Now,
	}
}

// getVisitor returns or creates a visitor for the IP.
func (rl *RateLimiter) getVisitor(ip string) *visitor {
	if v, ok := rl.visitors.Get(ip); ok {
		return v.(*visitor)
	}

	v := &visitor{tokens: rl.limit, lastReset: rl.now()}
	// Add fails if another request created the visitor first.
	if err := rl.visitors.Add(ip, v, gocache.DefaultExpiration); err != nil {
		if existing, ok := rl.visitors.Get(ip); ok {
			return existing.(*visitor)
		}
		rl.visitors.SetDefault(ip, v)
	}
	return v
}

// Allow reports whether a request from ip is allowed and consumes a token.
func (rl *RateLimiter) Allow(ip string) bool {
	v := rl.getVisitor(ip)

	v.mu.Lock()
	defer v.mu.Unlock()

	if rl.now().Sub(v.lastReset) > rl.window {
		v.tokens = rl.limit
		v.lastReset = rl.now()
		rl.visitors.SetDefault(ip, v)
	}

	if v.tokens > 0 {
		v.tokens--
		return true
	}

	return false
}

// Visitors returns the number of tracked clients.
func (rl *RateLimiter) Visitors() int {
	return rl.visitors.ItemCount()
}

// RateLimit middleware limits requests per client IP address.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, rl.trustProxy)

			if !rl.Allow(ip) {
				rl.logger.Warn().
					Str("ip", ip).
					Str("path", r.URL.Path).
					Msg("Rate limit exceeded")

				w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
				response.RateLimited(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of RemoteAddr. When trustProxy is set the
// first X-Forwarded-For entry wins if present.
func ClientIP(r *http.Request, trustProxy bool) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); trustProxy && forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

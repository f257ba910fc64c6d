package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Harshitk-cp/tenantgate/internal/api/respond"
	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"github.com/Harshitk-cp/tenantgate/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides per-IP and per-caller rate limiting. Login and key
// validation are the endpoints it mostly protects from credential guessing.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

// NewRateLimiter creates a rate limiter with the given requests per second and burst size.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow checks if a request from the given key should be allowed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[key]
	if !ok {
		// First request from this key starts with a full burst
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	rl.mu.Unlock()

	return v.limiter.Allow()
}

// Cleanup forgets visitors idle for longer than maxAge.
func (rl *RateLimiter) Cleanup(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Idle visitors have refilled to a full burst anyway, so dropping
	// them loses no state.
	cutoff := rl.now().Add(-maxAge)
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup(interval)
		}
	}
}

// Middleware limits requests per client IP.
func (rl *RateLimiter) Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Use X-Real-IP if set (from chi's RealIP middleware), otherwise RemoteAddr
			ip := r.Header.Get("X-Real-IP")
			if ip == "" {
				ip = r.RemoteAddr
			}

			if !rl.Allow("ip:" + ip) {
				rl.reject(w, logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ForIdentity adds a budget keyed by tenant and caller once the request is
// authenticated. It applies on top of the per-IP limit, so one user or API
// key spread over many addresses is still held to a single budget.
func (rl *RateLimiter) ForIdentity(logger *zap.Logger, next IdentityHandlerFunc) IdentityHandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, id domain.Identity) {
		if !rl.Allow(identityKey(id)) {
			rl.reject(w, logger)
			return
		}
		next(w, r, id)
	}
}

func identityKey(id domain.Identity) string {
	return "id:" + id.TenantID.String() + ":" + id.UserID.String()
}

func (rl *RateLimiter) reject(w http.ResponseWriter, logger *zap.Logger) {
	metrics.RateLimitRejected.Inc()
	// Tokens refill continuously; one second is enough for at least one.
	w.Header().Set("Retry-After", "1")
	respond.Error(w, logger, respond.ErrRateLimited)
}

package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit is middleware that throttles requests per authenticated
// service, protecting Fletcher from a bursty compute-adapter callback
// storm (SPEC_FULL.md DOMAIN STACK). Unlike the teacher's tenant-scoped
// limiter, Fletcher has no per-caller rate configuration, so every
// authenticated service shares one limit/burst pair.
func RateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiters := sync.Map{} // service -> *cachedLimiter

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "no authenticated principal")
				return
			}

			limiter := getOrCreateLimiter(&limiters, principal.Service, limit, burst, 5*time.Minute)
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type cachedLimiter struct {
	limiter   *rate.Limiter
	expiresAt time.Time
}

func getOrCreateLimiter(limiters *sync.Map, service string, limit rate.Limit, burst int, ttl time.Duration) *rate.Limiter {
	if cached, ok := limiters.Load(service); ok {
		c := cached.(*cachedLimiter)
		if time.Now().Before(c.expiresAt) {
			return c.limiter
		}
	}

	limiter := rate.NewLimiter(limit, burst)
	limiters.Store(service, &cachedLimiter{
		limiter:   limiter,
		expiresAt: time.Now().Add(ttl),
	})
	return limiter
}

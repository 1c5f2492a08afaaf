package ratelimiter

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrymomot/uikit/pkg/clientip"
)

// KeyFunc extracts the bucket key from a request.
type KeyFunc func(r *http.Request) string

// ByClientIP keys buckets by client address.
func ByClientIP(r *http.Request) string {
	if ip := clientip.FromContext(r.Context()); ip != "" {
		return ip
	}
	return clientip.FromRequest(r)
}

// Middleware enforces l per key. Rate limit headers are set on every
// response; denied requests go to deny with the time to wait. A nil deny
// answers 429 with a plain text body.
func Middleware(l *Limiter, key KeyFunc, deny func(w http.ResponseWriter, r *http.Request, retryAfter time.Duration)) func(http.Handler) http.Handler {
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, _ time.Duration) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := l.Allow(key(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, res.Remaining)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				wait := res.RetryAfter(l.now())
				h.Set("Retry-After", strconv.Itoa(max(1, int(wait.Round(time.Second)/time.Second))))
				deny(w, r, wait)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

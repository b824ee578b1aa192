package gateway

import (
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/flemzord/tgapi/internal/security"
	"github.com/go-chi/chi/v5/middleware"
)

// authMiddleware returns a chi-compatible middleware that validates a Bearer
// token using constant-time comparison. Failed attempts are counted in the
// auth_failure bucket of the calling client; once it is empty every request
// from that client is refused with 429 until it refills.
func authMiddleware(token string, limiter *security.RateLimiter, audit *security.AuditLogger, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientKey(r)
			if limiter != nil && limiter.Exhausted(security.BucketAuthFailure, client) {
				w.Header().Set("Retry-After", "60")
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}

			if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				if constantTimeEqual(after, token) {
					next.ServeHTTP(w, r)
					return
				}
			}

			if limiter != nil {
				_ = limiter.Allow(security.BucketAuthFailure, client)
			}
			if logger != nil {
				logger.Warn("gateway auth failure", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			}
			audit.Log(security.AuditEvent{
				Type:       security.EventAuthFailure,
				RemoteAddr: client,
				RequestID:  middleware.GetReqID(r.Context()),
				Detail:     r.URL.Path,
			})
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}

// rateLimitMiddleware refuses requests once the client's bucket is empty.
func rateLimitMiddleware(limiter *security.RateLimiter, bucket string, audit *security.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientKey(r)
			if err := limiter.Allow(bucket, client); err != nil {
				audit.Log(security.AuditEvent{
					Type:       security.EventRateLimit,
					RemoteAddr: client,
					RequestID:  middleware.GetReqID(r.Context()),
					Detail:     bucket,
				})
				w.Header().Set("Retry-After", "60")
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the caller by remote IP. Forwarding headers are not
// trusted; put the gateway behind a proxy that rewrites RemoteAddr if needed.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// constantTimeEqual compares two strings in constant time.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

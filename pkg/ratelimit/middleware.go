package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// PerIP limits requests per client IP. Keys are the remote address.
// X-Forwarded-For is honored only when trustProxy is set, for deployments
// behind a proxy that strips client-supplied values; otherwise a direct
// client could rotate header values to dodge the throttle.
func PerIP(limiter *Limiter, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r, trustProxy)
			if !limiter.Allow(key) {
				slog.Warn("Rate limit exceeded", "ip", key, "path", r.URL.Path)
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			parts := strings.Split(forwarded, ",")
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

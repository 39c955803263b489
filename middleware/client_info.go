package middleware

import (
	"net"
	"net/http"
	"strings"

	authflow "github.com/hailrides/authflow"
)

// ClientInfo returns middleware that copies the request's client IP and
// user agent into the context. Mount it ahead of the submit handler so the
// engine's default fingerprint and the audit stream see real client data.
func ClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := authflow.WithClientIP(r.Context(), clientIP(r))
		ctx = authflow.WithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP prefers the left-most X-Forwarded-For hop, then X-Real-IP, then
// the socket address. Trust of forwarding headers is the proxy's problem;
// strip them at the edge if clients can spoof them.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		if ip := strings.TrimSpace(fwd); ip != "" {
			return ip
		}
	}
	if real := r.Header.Get("X-Real-Ip"); real != "" {
		return real
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

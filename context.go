package authflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

type clientIPContextKey struct{}
type userAgentContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine folds it
// into the client fingerprint used for rate limiting and session quotas.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx. Combined with
// the client IP it forms the default fingerprint, so neither NAT sharing
// nor a spoofed agent alone collapses distinct clients into one bucket.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

// ClientIPFromContext returns the IP attached by [WithClientIP], or "".
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// UserAgentFromContext returns the agent attached by [WithUserAgent], or "".
func UserAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}

// defaultFingerprint hashes client IP and user agent into a fixed-width
// versioned identifier. Clients that present neither fall into one shared
// "anon" bucket rather than escaping the limiter.
func defaultFingerprint(ctx context.Context) string {
	ip := ClientIPFromContext(ctx)
	ua := UserAgentFromContext(ctx)
	if ip == "" && ua == "" {
		return "v1:anon"
	}

	sum := sha256.Sum256([]byte(ip + "|" + ua))
	return "v1:" + hex.EncodeToString(sum[:16])
}

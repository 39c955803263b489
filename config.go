package authflow

import (
	"errors"
	"time"
)

// Config defines the tuning surface of the flow engine.
//
// Config instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Config struct {
	Session   SessionConfig
	OTP       OTPConfig
	RateLimit RateLimitConfig
	JWT       JWTConfig
	Login     LoginConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes the session store.
type SessionConfig struct {
	RedisPrefix string
	// TTL is the sliding session lifetime; every update resets it.
	TTL time.Duration
	// MaxSessionsPerClient caps live sessions per client fingerprint.
	MaxSessionsPerClient int
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig tunes one-time code generation and verification.
type OTPConfig struct {
	Digits int
	TTL    time.Duration
	// EnforceExpiry rejects codes past their expiry at verification time.
	EnforceExpiry bool
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig tunes the per-fingerprint request window.
type RateLimitConfig struct {
	Enabled     bool
	Window      time.Duration
	MaxRequests int
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig tunes token issuance on terminal login.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
LOGIN CONFIG
====================================
*/

// LoginConfig tunes the terminal login result.
type LoginConfig struct {
	// DefaultRole is assigned to accounts created by the flow.
	DefaultRole string
	// RedirectURL is echoed in terminal responses for the client to follow.
	RedirectURL string
}

// AuditConfig tunes the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig tunes the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix:          "af",
			TTL:                  15 * time.Minute,
			MaxSessionsPerClient: 5,
		},
		OTP: OTPConfig{
			Digits:        4,
			TTL:           5 * time.Minute,
			EnforceExpiry: true,
		},
		RateLimit: RateLimitConfig{
			Enabled:     true,
			Window:      10 * time.Minute,
			MaxRequests: 10,
		},
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "hs256",
		},
		Login: LoginConfig{
			DefaultRole: "rider",
			RedirectURL: "/",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.MaxSessionsPerClient < 0 {
		return errors.New("Session MaxSessionsPerClient must be >= 0")
	}

	// OTP
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("OTP Digits must be between 4 and 10")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}
	if c.OTP.TTL > c.Session.TTL {
		return errors.New("OTP TTL must not exceed Session TTL")
	}

	// Rate limiting
	if c.RateLimit.Enabled {
		if c.RateLimit.MaxRequests <= 0 {
			return errors.New("RateLimit MaxRequests must be > 0 when enabled")
		}
		if c.RateLimit.Window <= 0 {
			return errors.New("RateLimit Window must be > 0 when enabled")
		}
	}

	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.SigningMethod != "hs256" && c.JWT.SigningMethod != "ed25519" {
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.SigningMethod == "hs256" && len(c.JWT.PrivateKey) == 0 {
		return errors.New("hs256 requires PrivateKey")
	}
	if c.JWT.SigningMethod == "ed25519" && (len(c.JWT.PrivateKey) == 0 || len(c.JWT.PublicKey) == 0) {
		return errors.New("ed25519 requires PrivateKey and PublicKey")
	}

	// Login
	if c.Login.DefaultRole == "" {
		return errors.New("Login DefaultRole is required")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

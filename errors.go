package authflow

import "errors"

var (
	// ErrValidation is an exported sentinel used by the flow engine.
	ErrValidation = errors.New("invalid field input")
	// ErrInvalidTransition is an exported sentinel used by the flow engine.
	ErrInvalidTransition = errors.New("invalid flow transition")
	// ErrSessionNotFound is an exported sentinel used by the flow engine.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is an exported sentinel used by the flow engine.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidOTP is an exported sentinel used by the flow engine.
	ErrInvalidOTP = errors.New("invalid otp code")
	// ErrRateLimitExceeded is an exported sentinel used by the flow engine.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrQuotaExceeded is an exported sentinel used by the flow engine.
	ErrQuotaExceeded = errors.New("session quota exceeded")
	// ErrDeliveryFailed is an exported sentinel used by the flow engine.
	ErrDeliveryFailed = errors.New("otp delivery failed")
	// ErrMissingContact is an exported sentinel used by the flow engine.
	ErrMissingContact = errors.New("session has no contact to resend to")
	// ErrSessionDataMissing is an exported sentinel used by the flow engine.
	ErrSessionDataMissing = errors.New("session data incomplete")
	// ErrUserNotFound is an exported sentinel used by the flow engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrStoreUnavailable is an exported sentinel used by the flow engine.
	ErrStoreUnavailable = errors.New("session backend unavailable")
	// ErrEngineNotReady is an exported sentinel used by the flow engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInternal is an exported sentinel used by the flow engine.
	ErrInternal = errors.New("internal error")
)

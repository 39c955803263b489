package authflow

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventSubmitRejected  = "submit_rejected"
	auditEventSubmitRateLimit = "submit_rate_limited"
	auditEventSessionCreated  = "session_created"
	auditEventSessionQuotaHit = "session_quota_exceeded"
	auditEventOTPSent         = "otp_sent"
	auditEventOTPResent       = "otp_resent"
	auditEventOTPInvalid      = "otp_invalid"
	auditEventOTPVerified     = "otp_verified"
	auditEventFlowAdvanced    = "flow_advanced"
	auditEventFlowReset       = "flow_reset"
	auditEventLoginSuccess    = "login_success"
	auditEventAccountCreated  = "account_created"
	auditEventDeliveryFailure = "otp_delivery_failure"
)

// AuditErrorCode classifies an error for the audit stream.
type AuditErrorCode string

const (
	auditErrValidation        AuditErrorCode = "validation"
	auditErrInvalidTransition AuditErrorCode = "invalid_transition"
	auditErrSessionNotFound   AuditErrorCode = "session_not_found"
	auditErrSessionExpired    AuditErrorCode = "session_expired"
	auditErrInvalidOTP        AuditErrorCode = "invalid_otp"
	auditErrRateLimited       AuditErrorCode = "rate_limited"
	auditErrQuotaExceeded     AuditErrorCode = "quota_exceeded"
	auditErrDeliveryFailed    AuditErrorCode = "delivery_failed"
	auditErrMissingContact    AuditErrorCode = "missing_contact"
	auditErrDataMissing       AuditErrorCode = "session_data_missing"
	auditErrUserNotFound      AuditErrorCode = "user_not_found"
	auditErrUnavailable       AuditErrorCode = "backend_unavailable"
	auditErrInternal          AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	flow FlowType,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Flow:      string(flow),
		UserID:    userID,
		SessionID: sessionID,
		IP:        ClientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrInvalidTransition):
		return auditErrInvalidTransition
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrSessionExpired):
		return auditErrSessionExpired
	case errors.Is(err, ErrInvalidOTP):
		return auditErrInvalidOTP
	case errors.Is(err, ErrRateLimitExceeded):
		return auditErrRateLimited
	case errors.Is(err, ErrQuotaExceeded):
		return auditErrQuotaExceeded
	case errors.Is(err, ErrDeliveryFailed):
		return auditErrDeliveryFailed
	case errors.Is(err, ErrMissingContact):
		return auditErrMissingContact
	case errors.Is(err, ErrSessionDataMissing):
		return auditErrDataMissing
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}

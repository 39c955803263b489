package authflow

import (
	"context"
	"fmt"
	"time"

	"github.com/hailrides/authflow/session"
)

// handleVerifyEmailOTP checks the submitted email code. Existing accounts
// (event TypeInputExistingEmail) short-cut into login; new contacts advance
// into the progressive flow.
func (e *Engine) handleVerifyEmailOTP(ctx context.Context, state *session.State, event EventType, answers []FieldAnswer) (*SubmitResponse, error) {
	values := fieldValues(answers)
	if err := requireFields(values, FieldEmailOTPCode); err != nil {
		return nil, err
	}

	if err := e.checkSessionOTP(ctx, state, values[FieldEmailOTPCode]); err != nil {
		return nil, err
	}

	if state.EventType == string(EventInputExistingEmail) {
		user, err := e.userProvider.FindUserByEmail(ctx, state.Email)
		if err != nil {
			return nil, fmt.Errorf("%w: email lookup: %v", ErrStoreUnavailable, err)
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		return e.finishLogin(ctx, state, user)
	}

	state.EmailVerified = true
	return e.advanceProgressive(ctx, state)
}

// handleVerifyPhoneOTP checks the submitted SMS code, mirroring
// handleVerifyEmailOTP for the phone channel.
func (e *Engine) handleVerifyPhoneOTP(ctx context.Context, state *session.State, event EventType, answers []FieldAnswer) (*SubmitResponse, error) {
	values := fieldValues(answers)
	if err := requireFields(values, FieldPhoneOTPCode); err != nil {
		return nil, err
	}

	if err := e.checkSessionOTP(ctx, state, values[FieldPhoneOTPCode]); err != nil {
		return nil, err
	}

	if state.EventType == string(EventInputExistingPhone) {
		user, err := e.userProvider.FindUserByPhone(ctx, state.PhoneCountryCode, state.PhoneNumber)
		if err != nil {
			return nil, fmt.Errorf("%w: phone lookup: %v", ErrStoreUnavailable, err)
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		return e.finishLogin(ctx, state, user)
	}

	state.PhoneVerified = true
	return e.advanceProgressive(ctx, state)
}

// handleResendOTP regenerates and redelivers the session's code over the
// channel named by the submitted event. The previous code stops working the
// moment the new one is stored.
func (e *Engine) handleResendOTP(ctx context.Context, state *session.State, event EventType, answers []FieldAnswer) (*SubmitResponse, error) {
	code, err := e.newSessionOTP(state)
	if err != nil {
		return nil, err
	}

	var (
		screen    ScreenType
		field     FormField
		channel   string
		hintValue string
	)

	switch event {
	case EventEmailOTP:
		if state.Email == "" {
			return nil, fmt.Errorf("%w: no email on session", ErrMissingContact)
		}
		if err := e.emailSender.SendOTP(ctx, state.Email, code); err != nil {
			e.metrics.Inc(MetricDeliveryFailure)
			return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}
		screen = ScreenEmailOTPCode
		channel = "email"
		hintValue = maskEmail(state.Email)
		field = FormField{FieldType: FieldEmailOTPCode, HintValue: hintValue, OTPWidth: len(code)}
	case EventSMSOTP:
		if state.PhoneNumber == "" {
			return nil, fmt.Errorf("%w: no phone number on session", ErrMissingContact)
		}
		if err := e.smsSender.SendOTP(ctx, state.PhoneCountryCode, state.PhoneNumber, code); err != nil {
			e.metrics.Inc(MetricDeliveryFailure)
			return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
		}
		screen = ScreenPhoneOTP
		channel = "sms"
		hintValue = maskPhone(state.PhoneNumber)
		field = FormField{FieldType: FieldPhoneOTPCode, HintValue: hintValue, OTPWidth: len(code)}
	default:
		return nil, fmt.Errorf("%w: unsupported resend event %s", ErrInvalidTransition, event)
	}

	// Keep the existing-account marker so the verify step still short-cuts
	// into login after a resend.
	nextEvent := event
	if state.EventType != "" {
		nextEvent = EventType(state.EventType)
	} else {
		state.EventType = string(event)
	}

	if err := e.saveSession(ctx, state); err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricOTPResent)
	e.emitAudit(ctx, auditEventOTPResent, true, FlowSignUp, "", state.SessionID, nil, func() map[string]string {
		return map[string]string{"channel": channel}
	})

	return buildStep(FlowSignUp, screen, []FormField{field}, nextEvent, state.SessionID), nil
}

// checkSessionOTP validates a submitted code against the session's stored
// one. Expiry enforcement is configurable; a mismatch or stale code counts
// as invalid either way.
func (e *Engine) checkSessionOTP(ctx context.Context, state *session.State, code string) error {
	otp := state.OTP
	if otp == nil || otp.Value != code {
		e.metrics.Inc(MetricOTPInvalid)
		e.emitAudit(ctx, auditEventOTPInvalid, false, FlowType(state.FlowType), "", state.SessionID, ErrInvalidOTP, nil)
		return ErrInvalidOTP
	}
	if e.config.OTP.EnforceExpiry && otp.Expired(time.Now()) {
		e.metrics.Inc(MetricOTPInvalid)
		e.emitAudit(ctx, auditEventOTPInvalid, false, FlowType(state.FlowType), "", state.SessionID, ErrInvalidOTP, func() map[string]string {
			return map[string]string{"reason": "expired"}
		})
		return fmt.Errorf("%w: code expired", ErrInvalidOTP)
	}

	e.metrics.Inc(MetricOTPVerified)
	e.emitAudit(ctx, auditEventOTPVerified, true, FlowType(state.FlowType), "", state.SessionID, nil, nil)
	return nil
}

// advanceProgressive consumes the verified OTP, moves the session into the
// progressive flow, and returns whichever step is still outstanding: the
// missing contact method first, then the name screen.
func (e *Engine) advanceProgressive(ctx context.Context, state *session.State) (*SubmitResponse, error) {
	state.OTP = nil
	state.EventType = ""
	state.FlowType = string(FlowProgressiveSignUp)
	if err := e.saveSession(ctx, state); err != nil {
		return nil, err
	}

	e.emitAudit(ctx, auditEventFlowAdvanced, true, FlowProgressiveSignUp, "", state.SessionID, nil, nil)

	screen, event, fields := nextProgressiveStep(state)
	return buildStep(FlowProgressiveSignUp, screen, fields, event, state.SessionID), nil
}

// nextProgressiveStep picks the outstanding progressive screen for a session.
func nextProgressiveStep(state *session.State) (ScreenType, EventType, []FormField) {
	switch {
	case state.EmailVerified && state.PhoneVerified:
		return ScreenFirstNameLastName, EventInputDetails, []FormField{
			{FieldType: FieldFirstName},
			{FieldType: FieldLastName},
		}
	case !state.EmailVerified:
		return ScreenEmailAddressProgressive, EventInputEmail, []FormField{
			{FieldType: FieldEmailAddress},
		}
	default:
		return ScreenPhoneNumberProgressive, EventInputMobile, []FormField{
			{FieldType: FieldPhoneCountryCode},
			{FieldType: FieldPhoneNumber},
		}
	}
}

package authflow

import (
	"context"
	"fmt"
	"time"

	"github.com/hailrides/authflow/internal"
	"github.com/hailrides/authflow/session"
)

// handleVerification starts contact verification: it validates the submitted
// email or phone, generates and delivers an OTP, and advances the session to
// the matching OTP screen. Existing accounts are detected here so the OTP
// screen can carry a "welcome back" hint and the verify step can short-cut
// into login.
func (e *Engine) handleVerification(ctx context.Context, state *session.State, event EventType, answers []FieldAnswer) (*SubmitResponse, error) {
	values := fieldValues(answers)

	switch event {
	case EventInputEmail:
		return e.startEmailVerification(ctx, state, values)
	case EventInputMobile:
		return e.startPhoneVerification(ctx, state, values)
	default:
		return nil, fmt.Errorf("%w: unsupported verification event %s", ErrInvalidTransition, event)
	}
}

func (e *Engine) startEmailVerification(ctx context.Context, state *session.State, values map[FieldType]string) (*SubmitResponse, error) {
	if err := requireFields(values, FieldEmailAddress); err != nil {
		return nil, err
	}
	email := values[FieldEmailAddress]

	existing, err := e.userProvider.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: email lookup: %v", ErrStoreUnavailable, err)
	}

	code, err := e.newSessionOTP(state)
	if err != nil {
		return nil, err
	}

	if err := e.emailSender.SendOTP(ctx, email, code); err != nil {
		e.metrics.Inc(MetricDeliveryFailure)
		e.emitAudit(ctx, auditEventDeliveryFailure, false, FlowSignUp, "", state.SessionID, ErrDeliveryFailed, func() map[string]string {
			return map[string]string{"channel": "email"}
		})
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	nextEvent := EventEmailOTP
	if existing != nil {
		nextEvent = EventInputExistingEmail
	}

	state.Email = email
	state.FlowType = string(FlowSignUp)
	state.EventType = string(nextEvent)
	if err := e.saveSession(ctx, state); err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricOTPSent)
	e.emitAudit(ctx, auditEventOTPSent, true, FlowSignUp, "", state.SessionID, nil, func() map[string]string {
		return map[string]string{"channel": "email"}
	})

	field := FormField{
		FieldType: FieldEmailOTPCode,
		HintValue: maskEmail(email),
		OTPWidth:  len(code),
		Hint:      hintFromUser(existing),
	}
	return buildStep(FlowSignUp, ScreenEmailOTPCode, []FormField{field}, nextEvent, state.SessionID), nil
}

func (e *Engine) startPhoneVerification(ctx context.Context, state *session.State, values map[FieldType]string) (*SubmitResponse, error) {
	if err := requireFields(values, FieldPhoneCountryCode, FieldPhoneNumber); err != nil {
		return nil, err
	}
	countryCode := values[FieldPhoneCountryCode]
	number := values[FieldPhoneNumber]

	existing, err := e.userProvider.FindUserByPhone(ctx, countryCode, number)
	if err != nil {
		return nil, fmt.Errorf("%w: phone lookup: %v", ErrStoreUnavailable, err)
	}

	code, err := e.newSessionOTP(state)
	if err != nil {
		return nil, err
	}

	if err := e.smsSender.SendOTP(ctx, countryCode, number, code); err != nil {
		e.metrics.Inc(MetricDeliveryFailure)
		e.emitAudit(ctx, auditEventDeliveryFailure, false, FlowSignUp, "", state.SessionID, ErrDeliveryFailed, func() map[string]string {
			return map[string]string{"channel": "sms"}
		})
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	nextEvent := EventSMSOTP
	if existing != nil {
		nextEvent = EventInputExistingPhone
	}

	state.PhoneCountryCode = countryCode
	state.PhoneNumber = number
	state.FlowType = string(FlowSignUp)
	state.EventType = string(nextEvent)
	if err := e.saveSession(ctx, state); err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricOTPSent)
	e.emitAudit(ctx, auditEventOTPSent, true, FlowSignUp, "", state.SessionID, nil, func() map[string]string {
		return map[string]string{"channel": "sms"}
	})

	field := FormField{
		FieldType: FieldPhoneOTPCode,
		HintValue: maskPhone(number),
		OTPWidth:  len(code),
		Hint:      hintFromUser(existing),
	}
	return buildStep(FlowSignUp, ScreenPhoneOTP, []FormField{field}, nextEvent, state.SessionID), nil
}

// newSessionOTP attaches a fresh code to the session, invalidating any
// previous one.
func (e *Engine) newSessionOTP(state *session.State) (string, error) {
	code, err := internal.NewOTP(e.config.OTP.Digits)
	if err != nil {
		return "", fmt.Errorf("%w: otp generation: %v", ErrInternal, err)
	}
	state.OTP = &session.OTP{
		Value:     code,
		ExpiresAt: time.Now().Add(e.config.OTP.TTL).UnixMilli(),
	}
	return code, nil
}

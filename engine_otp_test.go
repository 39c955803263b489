package authflow

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestVerifyEmailOTPRejectsWrongCode(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	resp := walkEmailVerification(t, te, "alice@example.com")
	sid := resp.Form.InAuthSessionID

	wrong := "0000"
	if wrong == te.email.lastCode {
		wrong = "1111"
	}

	_, err := te.engine.Submit(ctx, submitReq(FlowSignUp, ScreenEmailOTPCode, EventEmailOTP, sid,
		FieldAnswer{FieldType: FieldEmailOTPCode, Value: wrong}))
	if !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}
	if got := te.engine.MetricsSnapshot().Counters[MetricOTPInvalid]; got != 1 {
		t.Fatalf("expected otp invalid counter 1, got %d", got)
	}

	// The right code still works after a failed attempt.
	if _, err := te.engine.Submit(ctx, submitReq(FlowSignUp, ScreenEmailOTPCode, EventEmailOTP, sid,
		FieldAnswer{FieldType: FieldEmailOTPCode, Value: te.email.lastCode})); err != nil {
		t.Fatalf("correct code rejected: %v", err)
	}
}

func TestVerifyEmailOTPRejectsExpiredCode(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	resp := walkEmailVerification(t, te, "alice@example.com")
	sid := resp.Form.InAuthSessionID

	state, err := te.store.Get(ctx, sid)
	if err != nil {
		t.Fatalf("store get failed: %v", err)
	}
	state.OTP.ExpiresAt = time.Now().Add(-time.Minute).UnixMilli()
	if err := te.store.Update(ctx, state, time.Minute); err != nil {
		t.Fatalf("store update failed: %v", err)
	}

	_, err = te.engine.Submit(ctx, submitReq(FlowSignUp, ScreenEmailOTPCode, EventEmailOTP, sid,
		FieldAnswer{FieldType: FieldEmailOTPCode, Value: te.email.lastCode}))
	if !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP for expired code, got %v", err)
	}
}

func TestExpiredCodeAcceptedWhenEnforcementOff(t *testing.T) {
	te := newTestEngine(t, func(cfg *Config) {
		cfg.OTP.EnforceExpiry = false
	})
	ctx := context.Background()

	resp := walkEmailVerification(t, te, "alice@example.com")
	sid := resp.Form.InAuthSessionID

	state, err := te.store.Get(ctx, sid)
	if err != nil {
		t.Fatalf("store get failed: %v", err)
	}
	state.OTP.ExpiresAt = time.Now().Add(-time.Minute).UnixMilli()
	if err := te.store.Update(ctx, state, time.Minute); err != nil {
		t.Fatalf("store update failed: %v", err)
	}

	if _, err := te.engine.Submit(ctx, submitReq(FlowSignUp, ScreenEmailOTPCode, EventEmailOTP, sid,
		FieldAnswer{FieldType: FieldEmailOTPCode, Value: te.email.lastCode})); err != nil {
		t.Fatalf("expected stale code accepted with enforcement off, got %v", err)
	}
}

func TestVerifiedCodeCannotBeReused(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	resp := walkEmailVerification(t, te, "alice@example.com")
	sid := resp.Form.InAuthSessionID
	code := te.email.lastCode

	if _, err := te.engine.Submit(ctx, submitReq(FlowSignUp, ScreenEmailOTPCode, EventEmailOTP, sid,
		FieldAnswer{FieldType: FieldEmailOTPCode, Value: code})); err != nil {
		t.Fatalf("otp submit failed: %v", err)
	}

	// Verification consumes the code; replaying it on the same session fails.
	_, err := te.engine.Submit(ctx, submitReq(FlowSignUp, ScreenEmailOTPCode, EventEmailOTP, sid,
		FieldAnswer{FieldType: FieldEmailOTPCode, Value: code}))
	if !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected consumed code rejected, got %v", err)
	}
}

func TestResendInvalidatesPreviousCode(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	resp := walkEmailVerification(t, te, "alice@example.com")
	sid := resp.Form.InAuthSessionID
	firstCode := te.email.lastCode

	resendResp, err := te.engine.Submit(ctx, submitReq(FlowSignUp, ScreenResendOTP, EventEmailOTP, sid))
	if err != nil {
		t.Fatalf("resend submit failed: %v", err)
	}
	if resendResp.Form.Screens.ScreenType != ScreenEmailOTPCode {
		t.Fatalf("expected email otp screen after resend, got %s", resendResp.Form.Screens.ScreenType)
	}
	if te.email.sends != 2 {
		t.Fatalf("expected 2 deliveries, got %d", te.email.sends)
	}

	if firstCode != te.email.lastCode {
		if _, err := te.engine.Submit(ctx, submitReq(FlowSignUp, ScreenEmailOTPCode, EventEmailOTP, sid,
			FieldAnswer{FieldType: FieldEmailOTPCode, Value: firstCode})); !errors.Is(err, ErrInvalidOTP) {
			t.Fatalf("expected stale code rejected after resend, got %v", err)
		}
	}

	if _, err := te.engine.Submit(ctx, submitReq(FlowSignUp, ScreenEmailOTPCode, EventEmailOTP, sid,
		FieldAnswer{FieldType: FieldEmailOTPCode, Value: te.email.lastCode})); err != nil {
		t.Fatalf("fresh code rejected: %v", err)
	}
}

func TestResendKeepsExistingAccountMarker(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	te.provider.addUser(&User{
		ID:    "b5c8e7d4-2e61-4c6d-9d3e-6b1f0a9c8d72",
		Email: "bob@example.com",
		Role:  "rider",
	})

	resp := walkEmailVerification(t, te, "bob@example.com")
	sid := resp.Form.InAuthSessionID

	resendResp, err := te.engine.Submit(ctx, submitReq(FlowSignUp, ScreenResendOTP, EventEmailOTP, sid))
	if err != nil {
		t.Fatalf("resend submit failed: %v", err)
	}
	if resendResp.Form.Screens.EventType != EventInputExistingEmail {
		t.Fatalf("expected existing-email event preserved, got %s", resendResp.Form.Screens.EventType)
	}
}

func TestResendWithoutContact(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	// A session started over email has no phone number to resend to.
	resp := walkEmailVerification(t, te, "alice@example.com")
	sid := resp.Form.InAuthSessionID

	_, err := te.engine.Submit(ctx, submitReq(FlowSignUp, ScreenResendOTP, EventSMSOTP, sid))
	if !errors.Is(err, ErrMissingContact) {
		t.Fatalf("expected ErrMissingContact, got %v", err)
	}
}

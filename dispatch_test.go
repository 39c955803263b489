package authflow

import (
	"errors"
	"testing"
)

func TestDispatchTableCoversKnownTransitions(t *testing.T) {
	te := newTestEngine(t, nil)
	table := te.engine.dispatch

	valid := []struct {
		flow   FlowType
		screen ScreenType
		event  EventType
	}{
		{FlowInitial, ScreenPhoneNumberInitial, EventInputEmail},
		{FlowInitial, ScreenPhoneNumberInitial, EventInputMobile},
		{FlowSignUp, ScreenEmailOTPCode, EventEmailOTP},
		{FlowSignUp, ScreenEmailOTPCode, EventInputExistingEmail},
		{FlowSignUp, ScreenPhoneOTP, EventSMSOTP},
		{FlowSignUp, ScreenPhoneOTP, EventInputExistingPhone},
		{FlowSignUp, ScreenResendOTP, EventEmailOTP},
		{FlowSignUp, ScreenResendOTP, EventSMSOTP},
		{FlowSignUp, ScreenResetAccount, EventResetAccount},
		{FlowProgressiveSignUp, ScreenEmailAddressProgressive, EventInputEmail},
		{FlowProgressiveSignUp, ScreenPhoneNumberProgressive, EventInputMobile},
		{FlowProgressiveSignUp, ScreenFirstNameLastName, EventInputDetails},
		{FlowProgressiveSignUp, ScreenResetAccount, EventResetAccount},
		{FlowFinalSignUp, ScreenAgreeTerms, EventCheckBox},
	}

	for _, tc := range valid {
		handler, err := table.lookup(tc.flow, tc.screen, tc.event)
		if err != nil {
			t.Fatalf("%s/%s/%s: unexpected error %v", tc.flow, tc.screen, tc.event, err)
		}
		if handler == nil {
			t.Fatalf("%s/%s/%s: nil handler", tc.flow, tc.screen, tc.event)
		}
	}
}

func TestDispatchTableRejectsAtEveryLevel(t *testing.T) {
	te := newTestEngine(t, nil)
	table := te.engine.dispatch

	invalid := []struct {
		name   string
		flow   FlowType
		screen ScreenType
		event  EventType
	}{
		{"unknown flow", FlowType("BOGUS"), ScreenPhoneNumberInitial, EventInputEmail},
		{"unknown screen", FlowInitial, ScreenAgreeTerms, EventInputEmail},
		{"unknown event", FlowInitial, ScreenPhoneNumberInitial, EventCheckBox},
		{"terms on wrong flow", FlowSignUp, ScreenAgreeTerms, EventCheckBox},
		{"reset on final flow", FlowFinalSignUp, ScreenResetAccount, EventResetAccount},
	}

	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := table.lookup(tc.flow, tc.screen, tc.event)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

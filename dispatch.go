package authflow

import (
	"context"
	"fmt"

	"github.com/hailrides/authflow/session"
)

// stepHandler is the shared shape of every transition handler. The session
// state has already been loaded (or created) by Submit; handlers mutate it,
// write it back, and return either the next step or a terminal result.
type stepHandler func(ctx context.Context, state *session.State, event EventType, answers []FieldAnswer) (*SubmitResponse, error)

// dispatchTable is the state-machine transition table: states are
// (flow, screen) pairs, transitions are triggered by event. Built once at
// Build time; lookups are O(1) and a missing entry at any level is a
// terminal ErrInvalidTransition.
type dispatchTable map[FlowType]map[ScreenType]map[EventType]stepHandler

func (e *Engine) buildDispatch() dispatchTable {
	return dispatchTable{
		FlowInitial: {
			ScreenPhoneNumberInitial: {
				EventInputEmail:  e.handleVerification,
				EventInputMobile: e.handleVerification,
			},
		},
		FlowSignUp: {
			ScreenEmailOTPCode: {
				EventEmailOTP:           e.handleVerifyEmailOTP,
				EventInputExistingEmail: e.handleVerifyEmailOTP,
			},
			ScreenPhoneOTP: {
				EventSMSOTP:             e.handleVerifyPhoneOTP,
				EventInputExistingPhone: e.handleVerifyPhoneOTP,
			},
			ScreenResendOTP: {
				EventEmailOTP: e.handleResendOTP,
				EventSMSOTP:   e.handleResendOTP,
			},
			ScreenResetAccount: {
				EventResetAccount: e.handleResetAccount,
			},
		},
		FlowProgressiveSignUp: {
			ScreenEmailAddressProgressive: {
				EventInputEmail: e.handleVerification,
			},
			ScreenPhoneNumberProgressive: {
				EventInputMobile: e.handleVerification,
			},
			ScreenFirstNameLastName: {
				EventInputDetails: e.handleInputDetails,
			},
			ScreenResetAccount: {
				EventResetAccount: e.handleResetAccount,
			},
		},
		FlowFinalSignUp: {
			ScreenAgreeTerms: {
				EventCheckBox: e.handleCreateAccount,
			},
		},
	}
}

func (t dispatchTable) lookup(flow FlowType, screen ScreenType, event EventType) (stepHandler, error) {
	screens, ok := t[flow]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrInvalidTransition, flow, screen, event)
	}
	events, ok := screens[screen]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrInvalidTransition, flow, screen, event)
	}
	handler, ok := events[event]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrInvalidTransition, flow, screen, event)
	}
	return handler, nil
}

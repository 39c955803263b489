package authflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hailrides/authflow/internal"
	"github.com/hailrides/authflow/session"
)

// handleInputDetails records the user's name and advances into the final
// terms-and-conditions phase.
func (e *Engine) handleInputDetails(ctx context.Context, state *session.State, event EventType, answers []FieldAnswer) (*SubmitResponse, error) {
	values := fieldValues(answers)
	if err := requireFields(values, FieldFirstName, FieldLastName); err != nil {
		return nil, err
	}

	state.FirstName = values[FieldFirstName]
	state.LastName = values[FieldLastName]
	state.FlowType = string(FlowFinalSignUp)
	if err := e.saveSession(ctx, state); err != nil {
		return nil, err
	}

	e.emitAudit(ctx, auditEventFlowAdvanced, true, FlowFinalSignUp, "", state.SessionID, nil, nil)

	fields := []FormField{{FieldType: FieldTermsAndConditions}}
	return buildStep(FlowFinalSignUp, ScreenAgreeTerms, fields, EventCheckBox, state.SessionID), nil
}

// handleCreateAccount is the terminal signup step: it requires accepted
// terms and a complete session, creates the account, and logs the new user
// in.
func (e *Engine) handleCreateAccount(ctx context.Context, state *session.State, event EventType, answers []FieldAnswer) (*SubmitResponse, error) {
	values := fieldValues(answers)
	if err := requireFields(values, FieldTermsAndConditions); err != nil {
		return nil, err
	}
	if values[FieldTermsAndConditions] != "true" {
		return nil, fmt.Errorf("%w: terms and conditions not accepted", ErrValidation)
	}

	hasContact := (state.EmailVerified && state.Email != "") ||
		(state.PhoneVerified && state.PhoneNumber != "")
	if !hasContact || state.FirstName == "" || state.LastName == "" {
		return nil, ErrSessionDataMissing
	}

	role := state.Role
	if role == "" {
		role = e.config.Login.DefaultRole
	}

	user, err := e.userProvider.CreateUser(ctx, CreateUserInput{
		Email:            state.Email,
		PhoneCountryCode: state.PhoneCountryCode,
		PhoneNumber:      state.PhoneNumber,
		FirstName:        state.FirstName,
		LastName:         state.LastName,
		Role:             role,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create user: %v", ErrStoreUnavailable, err)
	}

	e.metrics.Inc(MetricAccountCreated)
	e.emitAudit(ctx, auditEventAccountCreated, true, FlowFinalSignUp, user.ID, state.SessionID, nil, nil)

	return e.finishLogin(ctx, state, user)
}

// handleResetAccount abandons the flow: the session is discarded and the
// client is sent back to the entry screen with no session ID.
func (e *Engine) handleResetAccount(ctx context.Context, state *session.State, event EventType, answers []FieldAnswer) (*SubmitResponse, error) {
	if err := e.store.Delete(ctx, state.SessionID); err != nil {
		return nil, mapStoreErr(err)
	}

	e.metrics.Inc(MetricFlowReset)
	e.emitAudit(ctx, auditEventFlowReset, true, FlowType(state.FlowType), "", state.SessionID, nil, nil)

	fields := []FormField{
		{FieldType: FieldPhoneCountryCode},
		{FieldType: FieldPhoneNumber},
		{FieldType: FieldEmailAddress},
	}
	return buildStep(FlowInitial, ScreenPhoneNumberInitial, fields, EventInputMobile, ""), nil
}

// finishLogin issues the token pair, persists the refresh token hash, and
// retires the flow session. Session deletion is best effort; the TTL will
// reclaim it regardless.
func (e *Engine) finishLogin(ctx context.Context, state *session.State, user *User) (*SubmitResponse, error) {
	access, err := e.jwtManager.CreateAccess(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: access token: %v", ErrInternal, err)
	}

	secret, err := internal.NewRefreshSecret()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh secret: %v", ErrInternal, err)
	}
	refresh, err := internal.EncodeRefreshToken(user.ID, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: refresh token: %v", ErrInternal, err)
	}

	hash := internal.HashRefreshSecret(secret)
	expiresAt := time.Now().Add(e.config.JWT.RefreshTTL)
	if err := e.userProvider.StoreRefreshToken(ctx, user.ID, hash, expiresAt); err != nil {
		return nil, fmt.Errorf("%w: store refresh token: %v", ErrStoreUnavailable, err)
	}

	if err := e.store.Delete(ctx, state.SessionID); err != nil {
		log.Printf("authflow: session delete after login failed: %v", err)
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, FlowLogin, user.ID, state.SessionID, nil, nil)

	tokens := &TokenPair{AccessToken: access, RefreshToken: refresh}
	return buildLogin(user, tokens, e.config.Login.RedirectURL), nil
}

package authflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// FlowType identifies the macro-phase of the onboarding/login journey.
//
// FlowType values travel on the wire verbatim; do not rename the constants'
// string values.
type FlowType string

const (
	// FlowInitial is the entry phase before any contact has been submitted.
	FlowInitial FlowType = "INITIAL"
	// FlowSignUp is the contact-verification phase (OTP entry).
	FlowSignUp FlowType = "SIGN_UP"
	// FlowProgressiveSignUp collects the remaining contact method and profile details.
	FlowProgressiveSignUp FlowType = "PROGRESSIVE_SIGN_UP"
	// FlowFinalSignUp is the terms-and-conditions phase before account creation.
	FlowFinalSignUp FlowType = "FINAL_SIGN_UP"
	// FlowLogin marks a terminal login result.
	FlowLogin FlowType = "LOGIN"
)

// ScreenType identifies the screen the client is currently displaying.
type ScreenType string

const (
	// ScreenPhoneNumberInitial is an exported constant used by the flow engine.
	ScreenPhoneNumberInitial ScreenType = "PHONE_NUMBER_INITIAL"
	// ScreenEmailAddress is an exported constant used by the flow engine.
	ScreenEmailAddress ScreenType = "EMAIL_ADDRESS"
	// ScreenEmailAddressProgressive is an exported constant used by the flow engine.
	ScreenEmailAddressProgressive ScreenType = "EMAIL_ADDRESS_PROGRESSIVE"
	// ScreenPhoneOTP is an exported constant used by the flow engine.
	ScreenPhoneOTP ScreenType = "PHONE_OTP"
	// ScreenEmailOTPCode is an exported constant used by the flow engine.
	ScreenEmailOTPCode ScreenType = "EMAIL_OTP_CODE"
	// ScreenPhoneNumberProgressive is an exported constant used by the flow engine.
	ScreenPhoneNumberProgressive ScreenType = "PHONE_NUMBER_PROGRESSIVE"
	// ScreenFirstNameLastName is an exported constant used by the flow engine.
	ScreenFirstNameLastName ScreenType = "FIRST_NAME_LAST_NAME"
	// ScreenAgreeTerms is an exported constant used by the flow engine.
	ScreenAgreeTerms ScreenType = "AGREE_TERMS_AND_CONDITIONS"
	// ScreenResendOTP is an exported constant used by the flow engine.
	ScreenResendOTP ScreenType = "RESEND_OTP"
	// ScreenResetAccount is an exported constant used by the flow engine.
	ScreenResetAccount ScreenType = "RESET_ACCOUNT"
)

// EventType identifies the semantic action a submission represents. Together
// with FlowType and ScreenType it selects the step handler.
type EventType string

const (
	// EventInputEmail is an exported constant used by the flow engine.
	EventInputEmail EventType = "TypeInputEmail"
	// EventInputMobile is an exported constant used by the flow engine.
	EventInputMobile EventType = "TypeInputMobile"
	// EventInputExistingEmail is an exported constant used by the flow engine.
	EventInputExistingEmail EventType = "TypeInputExistingEmail"
	// EventInputExistingPhone is an exported constant used by the flow engine.
	EventInputExistingPhone EventType = "TypeInputExistingPhone"
	// EventEmailOTP is an exported constant used by the flow engine.
	EventEmailOTP EventType = "TypeEmailOTP"
	// EventSMSOTP is an exported constant used by the flow engine.
	EventSMSOTP EventType = "TypeSMSOTP"
	// EventInputDetails is an exported constant used by the flow engine.
	EventInputDetails EventType = "TypeInputDetails"
	// EventCheckBox is an exported constant used by the flow engine.
	EventCheckBox EventType = "TypeCheckBox"
	// EventResetAccount is an exported constant used by the flow engine.
	EventResetAccount EventType = "TypeResetAccount"
)

// FieldType identifies a raw input key a screen may collect. The string
// values are wire keys consumed by deployed clients; termsAndconditions keeps
// its historical casing.
type FieldType string

const (
	// FieldPhoneCountryCode is an exported constant used by the flow engine.
	FieldPhoneCountryCode FieldType = "phoneCountryCode"
	// FieldPhoneNumber is an exported constant used by the flow engine.
	FieldPhoneNumber FieldType = "phoneNumber"
	// FieldPhoneOTPCode is an exported constant used by the flow engine.
	FieldPhoneOTPCode FieldType = "phoneOTPCode"
	// FieldEmailAddress is an exported constant used by the flow engine.
	FieldEmailAddress FieldType = "emailAddress"
	// FieldEmailOTPCode is an exported constant used by the flow engine.
	FieldEmailOTPCode FieldType = "emailOTPCode"
	// FieldFirstName is an exported constant used by the flow engine.
	FieldFirstName FieldType = "firstName"
	// FieldLastName is an exported constant used by the flow engine.
	FieldLastName FieldType = "lastName"
	// FieldTermsAndConditions is an exported constant used by the flow engine.
	FieldTermsAndConditions FieldType = "termsAndconditions"
)

// FieldAnswer is one submitted input value. On the wire each answer is an
// object whose value key is named after its field type:
//
//	{ "fieldType": "emailAddress", "emailAddress": "a@b.com" }
//
// Boolean answers (termsAndconditions) are normalized to "true"/"false".
type FieldAnswer struct {
	FieldType FieldType
	Value     string
}

// MarshalJSON implements the dynamic value-key encoding.
func (a FieldAnswer) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"fieldType":          string(a.FieldType),
		string(a.FieldType): a.Value,
	})
}

// UnmarshalJSON implements the dynamic value-key decoding.
func (a *FieldAnswer) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ft, _ := raw["fieldType"].(string)
	if ft == "" {
		return fmt.Errorf("field answer missing fieldType")
	}
	a.FieldType = FieldType(ft)

	switch v := raw[ft].(type) {
	case string:
		a.Value = v
	case bool:
		if v {
			a.Value = "true"
		} else {
			a.Value = "false"
		}
	case float64:
		a.Value = fmt.Sprintf("%v", v)
	case nil:
		a.Value = ""
	default:
		return fmt.Errorf("field answer %q has unsupported value type", ft)
	}
	return nil
}

// ScreenAnswers carries the screen context and inputs of one submission.
type ScreenAnswers struct {
	ScreenType   ScreenType    `json:"screenType"`
	EventType    EventType     `json:"eventType"`
	FieldAnswers []FieldAnswer `json:"fieldAnswers"`
}

// SubmitRequest is the wire request for [Engine.Submit].
type SubmitRequest struct {
	FlowType        FlowType      `json:"flowType"`
	InAuthSessionID string        `json:"inAuthSessionId"`
	ScreenAnswers   ScreenAnswers `json:"screenAnswers"`
}

// ProfileHint surfaces a returning user's details for "welcome back" UI when
// the submitted contact matches an existing account.
type ProfileHint struct {
	FirstName   string `json:"firstname,omitempty"`
	LastName    string `json:"lastname,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phonenumber,omitempty"`
}

// FormField describes one input the next screen expects.
type FormField struct {
	FieldType FieldType    `json:"fieldType"`
	HintValue string       `json:"hintValue,omitempty"`
	OTPWidth  int          `json:"otpWidth,omitempty"`
	Hint      *ProfileHint `json:"profileHint,omitempty"`
}

// FormScreen is the screen portion of a non-terminal response.
type FormScreen struct {
	ScreenType ScreenType  `json:"screenType"`
	Fields     []FormField `json:"fields"`
	EventType  EventType   `json:"eventType"`
}

// Form is the next-step payload of a non-terminal response.
type Form struct {
	FlowType        FlowType   `json:"flowType"`
	Screens         FormScreen `json:"screens"`
	InAuthSessionID string     `json:"inAuthSessionId"`
}

// TokenPair carries issued credentials for a terminal login. It is never
// serialized in the response body; transports move the tokens into cookies.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SubmitResponse is the wire response for [Engine.Submit]. Exactly one of
// Form, User, or Error is populated.
type SubmitResponse struct {
	Status      int        `json:"status"`
	Success     bool       `json:"success"`
	Form        *Form      `json:"form,omitempty"`
	User        *User      `json:"user,omitempty"`
	RedirectURL string     `json:"redirectUrl,omitempty"`
	Error       string     `json:"error,omitempty"`
	Tokens      *TokenPair `json:"-"`
}

// User is the persistent account record exchanged with the [UserProvider]
// and echoed in terminal login responses.
type User struct {
	ID               string `json:"id"`
	Email            string `json:"email,omitempty"`
	PhoneCountryCode string `json:"phoneCountryCode,omitempty"`
	PhoneNumber      string `json:"phonenumber,omitempty"`
	FirstName        string `json:"firstname,omitempty"`
	LastName         string `json:"lastname,omitempty"`
	Role             string `json:"role,omitempty"`
}

// CreateUserInput carries the collected session fields into
// [UserProvider.CreateUser].
type CreateUserInput struct {
	Email            string
	PhoneCountryCode string
	PhoneNumber      string
	FirstName        string
	LastName         string
	Role             string
}

// UserProvider is the persistent user store consumed by the engine.
//
// Lookups return (nil, nil) when no record matches; a non-nil error means
// the backend failed. Implementations must be safe for concurrent use.
type UserProvider interface {
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByPhone(ctx context.Context, countryCode, number string) (*User, error)
	CreateUser(ctx context.Context, input CreateUserInput) (*User, error)

	// StoreRefreshToken persists the sha256 hash of an issued refresh
	// secret. The engine never hands plaintext secrets to the provider.
	StoreRefreshToken(ctx context.Context, userID string, tokenHash [32]byte, expiresAt time.Time) error
}

// EmailSender delivers OTP codes over email.
type EmailSender interface {
	SendOTP(ctx context.Context, email, code string) error
}

// SMSSender delivers OTP codes over SMS.
type SMSSender interface {
	SendOTP(ctx context.Context, countryCode, number, code string) error
}

// FingerprintFunc derives the per-client identity used for rate limiting and
// session quotas. The default implementation hashes client IP and user agent
// taken from the request context.
type FingerprintFunc func(ctx context.Context) string

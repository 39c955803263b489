package authflow

import (
	"errors"
	"net/http"
	"strings"
)

// buildStep assembles a non-terminal next-screen response.
func buildStep(flow FlowType, screen ScreenType, fields []FormField, event EventType, sessionID string) *SubmitResponse {
	return &SubmitResponse{
		Status:  http.StatusOK,
		Success: true,
		Form: &Form{
			FlowType: flow,
			Screens: FormScreen{
				ScreenType: screen,
				Fields:     fields,
				EventType:  event,
			},
			InAuthSessionID: sessionID,
		},
	}
}

// buildLogin assembles a terminal login response. Tokens ride outside the
// JSON body for the transport to move into cookies.
func buildLogin(user *User, tokens *TokenPair, redirectURL string) *SubmitResponse {
	return &SubmitResponse{
		Status:      http.StatusOK,
		Success:     true,
		User:        user,
		RedirectURL: redirectURL,
		Tokens:      tokens,
	}
}

// ErrorResponse maps an engine error to the wire error shape. It is the
// single place where errors become statuses and user-safe messages; backend
// and provider detail never leaks through it.
func ErrorResponse(err error) *SubmitResponse {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, ErrValidation):
		status, message = http.StatusBadRequest, ErrValidation.Error()
	case errors.Is(err, ErrInvalidTransition):
		status, message = http.StatusBadRequest, ErrInvalidTransition.Error()
	case errors.Is(err, ErrSessionNotFound):
		status, message = http.StatusNotFound, ErrSessionNotFound.Error()
	case errors.Is(err, ErrSessionExpired):
		status, message = http.StatusGone, ErrSessionExpired.Error()
	case errors.Is(err, ErrInvalidOTP):
		status, message = http.StatusUnauthorized, ErrInvalidOTP.Error()
	case errors.Is(err, ErrRateLimitExceeded):
		status, message = http.StatusTooManyRequests, ErrRateLimitExceeded.Error()
	case errors.Is(err, ErrQuotaExceeded):
		status, message = http.StatusTooManyRequests, ErrQuotaExceeded.Error()
	case errors.Is(err, ErrMissingContact):
		status, message = http.StatusConflict, ErrMissingContact.Error()
	case errors.Is(err, ErrSessionDataMissing):
		status, message = http.StatusConflict, ErrSessionDataMissing.Error()
	}

	return &SubmitResponse{
		Status:  status,
		Success: false,
		Error:   message,
	}
}

// hintFromUser surfaces a returning user's details for "welcome back" UI.
// Returns nil for unknown contacts.
func hintFromUser(u *User) *ProfileHint {
	if u == nil {
		return nil
	}
	return &ProfileHint{
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       maskEmail(u.Email),
		PhoneNumber: maskPhone(u.PhoneNumber),
	}
}

// maskEmail keeps the first character and the domain: a***@example.com.
func maskEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// maskPhone keeps the last four digits.
func maskPhone(number string) string {
	if number == "" {
		return ""
	}
	if len(number) <= 4 {
		return strings.Repeat("*", len(number))
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

package session

import "time"

// OTP is the one-time code attached to a session. A fresh code overwrites
// the previous one; there is no explicit revocation.
type OTP struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expiresAt"` // epoch millis
}

// Expired reports whether the code is past its expiry at the given instant.
func (o *OTP) Expired(now time.Time) bool {
	return o != nil && o.ExpiresAt > 0 && now.UnixMilli() > o.ExpiresAt
}

// State defines the per-flow session record.
//
// State instances are owned by the Store; handlers read, mutate, and write
// back within a single request and never retain references past it.
type State struct {
	SessionID        string `json:"sessionId"`
	FlowType         string `json:"flowType"`
	Fingerprint      string `json:"fingerprint,omitempty"`
	Email            string `json:"email,omitempty"`
	PhoneCountryCode string `json:"phoneCountryCode,omitempty"`
	PhoneNumber      string `json:"phonenumber,omitempty"`
	FirstName        string `json:"firstname,omitempty"`
	LastName         string `json:"lastname,omitempty"`
	EmailVerified    bool   `json:"isVerifiedEmail,omitempty"`
	PhoneVerified    bool   `json:"isVerifiedPhonenumber,omitempty"`
	OTP              *OTP   `json:"otp,omitempty"`
	EventType        string `json:"eventType,omitempty"`
	Role             string `json:"role,omitempty"`

	CreatedAt int64 `json:"createdAt"`
	ExpiresAt int64 `json:"expiresAt"`
}

// Expired reports whether the session is past its TTL at the given instant.
func (s *State) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && now.UnixMilli() > s.ExpiresAt
}

// Clone returns an independent copy, including the OTP record.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	if s.OTP != nil {
		otp := *s.OTP
		out.OTP = &otp
	}
	return &out
}

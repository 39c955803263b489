package authflow

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateField(t *testing.T) {
	cases := []struct {
		name  string
		ft    FieldType
		value string
		ok    bool
	}{
		{"valid email", FieldEmailAddress, "a@b.com", true},
		{"email missing domain", FieldEmailAddress, "a@b", false},
		{"email with spaces", FieldEmailAddress, "a b@c.com", false},
		{"email too long", FieldEmailAddress, strings.Repeat("a", 250) + "@b.com", false},
		{"valid phone", FieldPhoneNumber, "7700900123", true},
		{"phone too short", FieldPhoneNumber, "12345", false},
		{"phone with letters", FieldPhoneNumber, "77009x0123", false},
		{"country code with plus", FieldPhoneCountryCode, "+44", true},
		{"country code bare", FieldPhoneCountryCode, "1", true},
		{"country code too long", FieldPhoneCountryCode, "+123456", false},
		{"valid otp", FieldEmailOTPCode, "1234", true},
		{"otp too short", FieldPhoneOTPCode, "123", false},
		{"valid name", FieldFirstName, "Anne-Marie", true},
		{"unicode name", FieldLastName, "Ødegård", true},
		{"empty name", FieldFirstName, "", false},
		{"terms true", FieldTermsAndConditions, "true", true},
		{"terms false", FieldTermsAndConditions, "false", true},
		{"terms junk", FieldTermsAndConditions, "yes", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateField(tc.ft, tc.value)
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
			}
		})
	}
}

func TestRequireFieldsMissing(t *testing.T) {
	values := fieldValues([]FieldAnswer{
		{FieldType: FieldFirstName, Value: "Alice"},
	})

	err := requireFields(values, FieldFirstName, FieldLastName)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing field, got %v", err)
	}
}

func TestFieldValuesLastAnswerWins(t *testing.T) {
	values := fieldValues([]FieldAnswer{
		{FieldType: FieldEmailAddress, Value: "first@example.com"},
		{FieldType: FieldEmailAddress, Value: "second@example.com"},
	})
	if values[FieldEmailAddress] != "second@example.com" {
		t.Fatalf("expected last answer to win, got %q", values[FieldEmailAddress])
	}
}

func TestValidateFieldRejectsUnknown(t *testing.T) {
	if err := validateField(FieldType("favoriteColor"), "blue"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown field, got %v", err)
	}
}

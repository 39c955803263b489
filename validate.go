package authflow

import (
	"fmt"
	"regexp"
)

var (
	emailPattern       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern       = regexp.MustCompile(`^[0-9]{6,14}$`)
	countryCodePattern = regexp.MustCompile(`^\+?[0-9]{1,4}$`)
	otpPattern         = regexp.MustCompile(`^[0-9]{4,10}$`)
	namePattern        = regexp.MustCompile(`^[\p{L}][\p{L} '.-]{0,49}$`)
)

// fieldValues flattens submitted answers into a lookup map. Later answers
// for the same field win, matching the wire's array semantics.
func fieldValues(answers []FieldAnswer) map[FieldType]string {
	values := make(map[FieldType]string, len(answers))
	for _, a := range answers {
		values[a.FieldType] = a.Value
	}
	return values
}

// requireFields validates that every named field is present and well formed.
func requireFields(values map[FieldType]string, fields ...FieldType) error {
	for _, ft := range fields {
		v, ok := values[ft]
		if !ok {
			return fmt.Errorf("%w: %s is required", ErrValidation, ft)
		}
		if err := validateField(ft, v); err != nil {
			return err
		}
	}
	return nil
}

func validateField(ft FieldType, value string) error {
	switch ft {
	case FieldEmailAddress:
		if !emailPattern.MatchString(value) || len(value) > 254 {
			return fmt.Errorf("%w: malformed email address", ErrValidation)
		}
	case FieldPhoneNumber:
		if !phonePattern.MatchString(value) {
			return fmt.Errorf("%w: malformed phone number", ErrValidation)
		}
	case FieldPhoneCountryCode:
		if !countryCodePattern.MatchString(value) {
			return fmt.Errorf("%w: malformed country code", ErrValidation)
		}
	case FieldEmailOTPCode, FieldPhoneOTPCode:
		if !otpPattern.MatchString(value) {
			return fmt.Errorf("%w: malformed otp code", ErrValidation)
		}
	case FieldFirstName, FieldLastName:
		if !namePattern.MatchString(value) {
			return fmt.Errorf("%w: malformed name", ErrValidation)
		}
	case FieldTermsAndConditions:
		if value != "true" && value != "false" {
			return fmt.Errorf("%w: malformed checkbox value", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown field %s", ErrValidation, ft)
	}
	return nil
}

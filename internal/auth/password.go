package auth

import (
	"errors"
	"strings"
	"unicode"
)

const minPasswordLength = 8

// ValidatePassword enforces the registration password policy.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return errors.New("password must be at least 8 characters long")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return errors.New("password must contain at least one number")
	}
	if !strings.ContainsAny(password, `!@#$%^&*(),.?":{}|<>`) {
		return errors.New("password must contain at least one special character")
	}
	return nil
}

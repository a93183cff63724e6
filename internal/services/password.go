package services

import (
	"unicode"

	"github.com/contactbook/backend/internal/domain"
)

// ValidatePassword enforces the minimum-strength policy: configurable length
// plus at least one letter and one digit.
func ValidatePassword(password string, minLength int) error {
	if len(password) < minLength {
		return domain.ErrWeakPassword
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return domain.ErrWeakPassword
	}
	return nil
}

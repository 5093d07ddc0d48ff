// Package validation holds the input checkers shared by signup, login
// and profile handlers.
package validation

import (
	"regexp"
	"strings"
)

var (
	emailRegex  = regexp.MustCompile(`^[\w.-]+@[a-zA-Z\d.-]+\.[a-zA-Z]{2,}$`)
	handleRegex = regexp.MustCompile(`^[a-zA-Z0-9._]{3,30}$`)
	phoneRegex  = regexp.MustCompile(`^(\+?\d{1,3})?\s?\d{8,13}$`)
)

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// IsValidPassword enforces the password policy: 8-32 characters with at
// least one lowercase letter, one uppercase letter, one digit and one
// special character. Go's regexp has no lookahead, so the classes are
// checked individually.
func IsValidPassword(s string) bool {
	if len(s) < 8 || len(s) > 32 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune("@$!%*?&#+", r):
			special = true
		default:
			// characters outside the allowed set invalidate the password
			return false
		}
	}
	return lower && upper && digit && special
}

// IsValidHandle reports whether s is a usable public username.
func IsValidHandle(s string) bool {
	return handleRegex.MatchString(s)
}

// IsValidPhone reports whether s looks like an international phone number.
func IsValidPhone(s string) bool {
	return phoneRegex.MatchString(s)
}

// Package validation holds the field checks shared by every form of the
// client: password complexity and strength, e-mail and username format,
// and a few optional profile fields.
//
// All functions are pure: they depend on nothing but their arguments and
// may be called from any goroutine.
package validation

import (
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest accepted password, in runes.
const MinPasswordLength = 8

// PasswordSymbols is the set of characters that satisfy the symbol rule.
const PasswordSymbols = `!@#$%^&*()_+-=[]{};':"\|,.<>/?~`

type passwordRule struct {
	ok      func(string) bool
	message string
}

// passwordRules are evaluated in order; each failing rule yields its message.
var passwordRules = []passwordRule{
	{
		ok:      func(p string) bool { return len([]rune(p)) >= MinPasswordLength },
		message: "Password must be at least 8 characters long",
	},
	{
		ok:      func(p string) bool { return strings.IndexFunc(p, unicode.IsLower) >= 0 },
		message: "Password must contain at least one lowercase letter",
	},
	{
		ok:      func(p string) bool { return strings.IndexFunc(p, unicode.IsUpper) >= 0 },
		message: "Password must contain at least one uppercase letter",
	},
	{
		ok:      func(p string) bool { return strings.IndexFunc(p, unicode.IsDigit) >= 0 },
		message: "Password must contain at least one digit",
	},
	{
		ok:      func(p string) bool { return strings.ContainsAny(p, PasswordSymbols) },
		message: "Password must contain at least one special character (" + PasswordSymbols + ")",
	},
}

// ValidatePassword returns one message per failed rule. Rules are
// independent, so "abc" reports length, uppercase, digit and symbol at once.
// A nil result means the password is acceptable.
func ValidatePassword(password string) []string {
	var errs []string
	for _, r := range passwordRules {
		if !r.ok(password) {
			errs = append(errs, r.message)
		}
	}
	return errs
}

// PasswordStrength scores a password from 0 to 5, one point per satisfied rule.
func PasswordStrength(password string) int {
	score := 0
	for _, r := range passwordRules {
		if r.ok(password) {
			score++
		}
	}
	return score
}

// StrengthLabel names a PasswordStrength score for display next to a meter.
func StrengthLabel(score int) string {
	switch {
	case score <= 1:
		return "very weak"
	case score == 2:
		return "weak"
	case score == 3:
		return "fair"
	case score == 4:
		return "good"
	default:
		return "strong"
	}
}

package validation

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MinUsernameLength = 3
	MaxBioLength      = 500
	BirthDateLayout   = "2006-01-02"
)

var (
	// local@domain.tld, deliberately looser than RFC 5322.
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameCharset = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	validate = validator.New()
)

var (
	ErrInvalidWebsite   = errors.New("website must be a valid URL")
	ErrInvalidPhone     = errors.New("phone number must be in international format, e.g. +15551234567")
	ErrInvalidBirthDate = errors.New("birth date must be a past date in YYYY-MM-DD format")
	ErrInvalidGender    = errors.New("gender must be one of: male, female, other, unspecified")
	ErrBioTooLong       = errors.New("bio must be at most 500 characters")
)

// Genders lists the accepted values of the gender field.
var Genders = []string{"male", "female", "other", "unspecified"}

// ValidateEmail reports whether value looks like local@domain.tld.
func ValidateEmail(value string) bool {
	return emailPattern.MatchString(strings.TrimSpace(value))
}

// ValidateUsername returns the problems found with value. An empty username
// only reports that it is required.
func ValidateUsername(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{"Username is required"}
	}

	var errs []string
	if utf8.RuneCountInString(value) < MinUsernameLength {
		errs = append(errs, "Username must be at least 3 characters long")
	}
	if !usernameCharset.MatchString(value) {
		errs = append(errs, "Username may contain only letters, digits, hyphens and underscores")
	}
	return errs
}

// ValidateWebsite accepts absolute URLs with a scheme and host.
func ValidateWebsite(value string) error {
	if err := validate.Var(strings.TrimSpace(value), "required,url"); err != nil {
		return ErrInvalidWebsite
	}
	return nil
}

// ValidatePhone accepts E.164 numbers.
func ValidatePhone(value string) error {
	if err := validate.Var(strings.TrimSpace(value), "required,e164"); err != nil {
		return ErrInvalidPhone
	}
	return nil
}

// ValidateBirthDate accepts YYYY-MM-DD dates strictly before today.
func ValidateBirthDate(value string, now time.Time) error {
	d, err := time.Parse(BirthDateLayout, strings.TrimSpace(value))
	if err != nil {
		return ErrInvalidBirthDate
	}
	if !d.Before(now) {
		return ErrInvalidBirthDate
	}
	return nil
}

func ValidateGender(value string) error {
	if err := validate.Var(value, "oneof=male female other unspecified"); err != nil {
		return ErrInvalidGender
	}
	return nil
}

func ValidateBio(value string) error {
	if utf8.RuneCountInString(value) > MaxBioLength {
		return ErrBioTooLong
	}
	return nil
}

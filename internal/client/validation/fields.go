package validation

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/frontnickson/toolrole-sub001/internal/client/models"
)

// FieldErrors maps a field name (the API's snake_case name) to the
// messages found for it.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field string, msgs ...string) {
	if len(msgs) == 0 {
		return
	}
	fe[field] = append(fe[field], msgs...)
}

// Fields returns the offending field names in sorted order.
func (fe FieldErrors) Fields() []string {
	return slices.Sorted(maps.Keys(fe))
}

// String renders "field: msg; msg" entries in field order.
func (fe FieldErrors) String() string {
	parts := make([]string, 0, len(fe))
	for _, f := range fe.Fields() {
		parts = append(parts, f+": "+strings.Join(fe[f], "; "))
	}
	return strings.Join(parts, "; ")
}

// ValidateCredentials checks the fields of a sign-up form.
func ValidateCredentials(email, username, password string) FieldErrors {
	fe := FieldErrors{}
	switch {
	case strings.TrimSpace(email) == "":
		fe.Add("email", "Email is required")
	case !ValidateEmail(email):
		fe.Add("email", "Enter a valid email address")
	}
	fe.Add("username", ValidateUsername(username)...)
	fe.Add("password", ValidatePassword(password)...)
	return fe
}

// ValidateProfile checks the optional profile fields present in d. Empty
// values are accepted: they clear the field.
func ValidateProfile(d models.Draft, now time.Time) FieldErrors {
	fe := FieldErrors{}
	check := func(field string, v *string, fn func(string) error) {
		if v == nil || strings.TrimSpace(*v) == "" {
			return
		}
		if err := fn(*v); err != nil {
			fe.Add(field, err.Error())
		}
	}

	check("website", d.Website, ValidateWebsite)
	check("phone_number", d.Phone, ValidatePhone)
	check("birth_date", d.BirthDate, func(v string) error { return ValidateBirthDate(v, now) })
	check("gender", d.Gender, ValidateGender)
	check("bio", d.Bio, ValidateBio)
	for name, link := range d.SocialLinks {
		if strings.TrimSpace(link) == "" {
			continue
		}
		if err := ValidateWebsite(link); err != nil {
			fe.Add("social_links."+name, "link must be a valid URL")
		}
	}
	return fe
}

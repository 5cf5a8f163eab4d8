package wizard

import (
	"context"
	"strings"
	"time"

	"github.com/frontnickson/toolrole-sub001/internal/client/models"
	"github.com/frontnickson/toolrole-sub001/internal/client/validation"
)

// validateStep checks the fields owned by step against the merged draft d.
func validateStep(step Step, d models.Draft, now time.Time) validation.FieldErrors {
	switch step {
	case StepCredentials:
		return validateCredentials(d)
	case StepPersonalData:
		return validatePersonal(d, now)
	case StepProfession:
		return validateProfession(d, now)
	default:
		return nil
	}
}

func validateCredentials(d models.Draft) validation.FieldErrors {
	password := models.Deref(d.Password)
	fe := validation.ValidateCredentials(models.Deref(d.Email), models.Deref(d.Username), password)
	switch {
	case d.PasswordConfirm == nil || *d.PasswordConfirm == "":
		fe.Add("password_confirm", "Please confirm your password")
	case *d.PasswordConfirm != password:
		fe.Add("password_confirm", "Passwords do not match")
	}
	return fe
}

func validatePersonal(d models.Draft, now time.Time) validation.FieldErrors {
	fe := validation.FieldErrors{}
	if strings.TrimSpace(models.Deref(d.FirstName)) == "" {
		fe.Add("first_name", "First name is required")
	}
	if strings.TrimSpace(models.Deref(d.LastName)) == "" {
		fe.Add("last_name", "Last name is required")
	}
	personal := models.Draft{Gender: d.Gender, BirthDate: d.BirthDate, Phone: d.Phone}
	for f, msgs := range validation.ValidateProfile(personal, now) {
		fe.Add(f, msgs...)
	}
	return fe
}

func validateProfession(d models.Draft, now time.Time) validation.FieldErrors {
	profession := models.Draft{Bio: d.Bio, Website: d.Website, SocialLinks: d.SocialLinks}
	return validation.ValidateProfile(profession, now)
}

// probeCredentials asks the server whether the email or username is taken.
// The probes are advisory: a failed probe reports "available".
func (w *Wizard) probeCredentials(ctx context.Context, d models.Draft) validation.FieldErrors {
	fe := validation.FieldErrors{}
	if w.session.CheckEmailExists(ctx, models.Deref(d.Email)) {
		fe.Add("email", "This email is already registered")
	}
	if w.session.CheckUsernameExists(ctx, models.Deref(d.Username)) {
		fe.Add("username", "This username is already taken")
	}
	return fe
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/frontnickson/toolrole-sub001/internal/client/models"
	"github.com/frontnickson/toolrole-sub001/internal/client/services"
	"github.com/frontnickson/toolrole-sub001/internal/client/validation"
	"github.com/frontnickson/toolrole-sub001/internal/client/wizard"
	"github.com/frontnickson/toolrole-sub001/internal/common"
	"github.com/frontnickson/toolrole-sub001/internal/filex"
)

// wizardRunner is the part of *wizard.Wizard the prompts drive.
type wizardRunner interface {
	State() wizard.State
	Next(ctx context.Context, payload models.Draft) error
	Back() error
	Decline(ctx context.Context) error
	Cancel(ctx context.Context) error
	Commit(ctx context.Context) (*wizard.CommitReport, error)
}

var (
	errBack = errors.New("back")
	errQuit = errors.New("quit")
)

const termsText = `Terms of use
  Your account data is stored on the task-board server and used only to
  run the service. You can delete your account at any time.`

// Register runs the short sign-up wizard.
func (a *App) Register(ctx context.Context) error {
	return a.runWizard(ctx, wizard.Registration)
}

// Setup runs the sign-up wizard that also collects the full profile.
func (a *App) Setup(ctx context.Context) error {
	return a.runWizard(ctx, wizard.ProfileSetup)
}

func (a *App) runWizard(ctx context.Context, v wizard.Variant) error {
	w, err := a.newWizard(v)
	if err != nil {
		return err
	}
	printlnFn("Type :back to return to the previous step, :quit to cancel.")

	// pending holds what was typed for a step that failed validation, so the
	// next attempt can keep it with a blank answer.
	var pending models.Draft
	var pendingStep wizard.Step

	for {
		st := w.State()
		if st.CurrentStep != pendingStep {
			pending, pendingStep = models.Draft{}, st.CurrentStep
		}
		switch st.CurrentStep {
		case wizard.StepDone:
			if u := a.state.CurrentUser(); u != nil {
				printlnFn("Account created. Welcome, " + u.Username + "!")
			}
			return nil

		case wizard.StepAgreement:
			done, err := a.agreementStep(ctx, w)
			if err != nil || done {
				return err
			}

		default:
			printlnFn(fmt.Sprintf("[%d/%d] %s", st.StepIndex+1, st.StepCount, stepTitle(st.CurrentStep)))
			payload, err := a.promptStep(st.CurrentStep, st.Draft.Merge(pending))
			switch {
			case errors.Is(err, errBack):
				if err := w.Back(); err != nil {
					return err
				}
				continue
			case errors.Is(err, errQuit):
				return cancelWizard(ctx, w)
			case err != nil:
				return err
			}

			payload = pending.Merge(payload)
			if err := w.Next(ctx, payload); err != nil {
				var se *wizard.StepError
				if !errors.As(err, &se) {
					return err
				}
				pending = payload
				printFieldErrors(se.Fields)
				continue
			}
			pending = models.Draft{}
		}
	}
}

// agreementStep asks for the agreement and commits on acceptance. done is
// true when the wizard run is over.
func (a *App) agreementStep(ctx context.Context, w wizardRunner) (done bool, err error) {
	printlnFn(termsText)
	answer, err := getSimpleText(a.reader, "Accept the terms? (yes/no/back)", a.out)
	if err != nil {
		return true, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		report, err := w.Commit(ctx)
		if err != nil {
			printlnFn("Error:", errorText(err))
			printlnFn("Your entries were kept; review them and try again.")
			return false, nil
		}
		if report.AvatarErr != nil {
			printlnFn("Warning: avatar was not uploaded:", errorText(report.AvatarErr))
		}
		if report.ProfileErr != nil {
			printlnFn("Warning: some profile details were not saved:", errorText(report.ProfileErr))
		}
		return false, nil

	case "n", "no":
		if err := w.Decline(ctx); err != nil {
			return true, err
		}
		printlnFn(w.State().Notice)
		return false, nil

	case "b", "back", ":back":
		return false, w.Back()

	case ":quit":
		return true, cancelWizard(ctx, w)
	}

	printlnFn("Please answer yes, no or back.")
	return false, nil
}

// cancelWizard drops the run and the draft it collected.
func cancelWizard(ctx context.Context, w wizardRunner) error {
	if err := w.Cancel(ctx); err != nil {
		return err
	}
	printlnFn("Cancelled.")
	return nil
}

func stepTitle(s wizard.Step) string {
	switch s {
	case wizard.StepWelcome:
		return "Welcome"
	case wizard.StepCredentials:
		return "Account"
	case wizard.StepPersonalData:
		return "About you"
	case wizard.StepProfession:
		return "Work and links"
	default:
		return string(s)
	}
}

func printFieldErrors(fe validation.FieldErrors) {
	printlnFn("Please fix the following:")
	for _, f := range fe.Fields() {
		printlnFn(fmt.Sprintf("  %s: %s", f, strings.Join(fe[f], "; ")))
	}
}

// promptStep collects the payload of one step. Fields left blank keep the
// value already in the draft.
func (a *App) promptStep(step wizard.Step, d models.Draft) (models.Draft, error) {
	var p models.Draft
	var err error

	ask := func(dst **string, label string, current *string, optional bool) {
		if err != nil {
			return
		}
		*dst, err = a.askField(label, current, optional)
	}

	switch step {
	case wizard.StepWelcome:
		printlnFn("Let's set up your account and profile.")
		var s *string
		ask(&s, "Press Enter to begin", nil, true)

	case wizard.StepCredentials:
		ask(&p.Email, "Email", d.Email, false)
		ask(&p.Username, "Username", d.Username, false)
		if err == nil {
			p.Password, p.PasswordConfirm, err = a.askPassword(d.Password != nil)
		}

	case wizard.StepPersonalData:
		ask(&p.FirstName, "First name", d.FirstName, false)
		ask(&p.LastName, "Last name", d.LastName, false)
		ask(&p.MiddleName, "Middle name", d.MiddleName, true)
		ask(&p.Gender, "Gender (male/female/other/unspecified)", d.Gender, true)
		ask(&p.BirthDate, "Birth date (YYYY-MM-DD)", d.BirthDate, true)
		ask(&p.Phone, "Phone number", d.Phone, true)
		if err == nil {
			p.Avatar, err = a.askAvatar(d.Avatar)
		}

	case wizard.StepProfession:
		if err == nil {
			p.Bio, err = a.askBio(d.Bio)
		}
		ask(&p.Occupation, "Occupation", d.Occupation, true)
		ask(&p.Company, "Company", d.Company, true)
		ask(&p.Location, "Location", d.Location, true)
		ask(&p.Website, "Website", d.Website, true)
		if err == nil {
			p.SocialLinks, err = a.askLinks(d.SocialLinks)
		}
	}
	return p, err
}

// askField prompts for one text field. Blank input keeps current (nil is
// returned); "-" clears an optional field.
func (a *App) askField(label string, current *string, optional bool) (*string, error) {
	prompt := label
	switch {
	case current != nil && *current != "":
		prompt += " [" + *current + "]"
	case optional:
		prompt += " (optional)"
	}

	s, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return nil, err
	}
	switch {
	case s == ":back":
		return nil, errBack
	case s == ":quit":
		return nil, errQuit
	case s == "":
		return nil, nil
	case s == "-" && optional:
		return models.String(""), nil
	}
	return &s, nil
}

// askPassword reads the password twice. With keep set, a blank first entry
// keeps the password already in the draft.
func (a *App) askPassword(keep bool) (password, confirm *string, err error) {
	prompt := "Password"
	if keep {
		prompt += " (Enter to keep)"
	}
	pw, err := getPassword(prompt, a.out)
	if err != nil {
		return nil, nil, err
	}
	defer common.WipeBytes(pw)

	switch string(pw) {
	case ":back":
		return nil, nil, errBack
	case ":quit":
		return nil, nil, errQuit
	case "":
		if keep {
			return nil, nil, nil
		}
		return models.String(""), models.String(""), nil
	}
	printlnFn("Strength: " + validation.StrengthLabel(validation.PasswordStrength(string(pw))))

	again, err := getPassword("Confirm password", a.out)
	if err != nil {
		return nil, nil, err
	}
	defer common.WipeBytes(again)

	return models.String(string(pw)), models.String(string(again)), nil
}

// askAvatar reads an optional image path. A file that cannot be loaded is
// reported and skipped; the upload itself is checked again on commit.
func (a *App) askAvatar(current *models.Upload) (*models.Upload, error) {
	var cur *string
	if current != nil {
		cur = &current.FileName
	}
	path, err := a.askField("Avatar image path", cur, true)
	if err != nil || path == nil || *path == "" {
		return nil, err
	}

	data, err := filex.ReadLimited(*path, services.MaxAvatarBytes)
	if err != nil {
		printlnFn("Avatar skipped:", err.Error())
		return nil, nil
	}
	return &models.Upload{
		FileName:    filepath.Base(*path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

func (a *App) askBio(current *string) (*string, error) {
	prompt := "Bio"
	if current != nil && *current != "" {
		prompt += " (blank keeps the current text)"
	}
	text, err := getMultiline(a.reader, prompt, a.out)
	if err != nil {
		return nil, err
	}
	switch text {
	case ":back":
		return nil, errBack
	case ":quit":
		return nil, errQuit
	case "":
		return nil, nil
	}
	return &text, nil
}

// askLinks reads social links as name=url lines. Entered links are merged
// over the current ones; an empty url removes that link on submit.
func (a *App) askLinks(current map[string]string) (map[string]string, error) {
	prompt := "Social links, one name=url per line"
	if len(current) > 0 {
		prompt += " (current: " + strings.Join(slices.Sorted(maps.Keys(current)), ", ") + ")"
	}
	for {
		links, err := getPairs(a.reader, prompt, a.out)
		if err != nil {
			printlnFn(err.Error())
			continue
		}
		if len(links) == 0 {
			return nil, nil
		}
		return links, nil
	}
}

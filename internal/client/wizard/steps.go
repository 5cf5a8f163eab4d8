// Package wizard drives the multi-step sign-up flows. A Wizard walks a
// fixed sequence of steps, validates each step before moving on, keeps the
// entered data in the store's draft and submits it all at the end.
package wizard

import (
	"errors"
	"fmt"
	"slices"

	"github.com/frontnickson/toolrole-sub001/internal/client/validation"
)

type Step string

const (
	StepWelcome      Step = "welcome"
	StepCredentials  Step = "credentials"
	StepPersonalData Step = "personalData"
	StepProfession   Step = "profession"
	StepAgreement    Step = "agreement"
	// StepCommitting is entered by Commit and left when it returns.
	StepCommitting Step = "committing"
	// StepDone is terminal: the account exists and the draft is gone.
	StepDone Step = "done"
)

// Variant is a named step sequence. It must end with StepAgreement.
type Variant struct {
	Name  string
	Steps []Step
}

var (
	Registration = Variant{
		Name:  "registration",
		Steps: []Step{StepCredentials, StepPersonalData, StepAgreement},
	}
	// ProfileSetup opens with StepWelcome, an intro screen that collects
	// nothing. It is still a position in Steps, so StepCount is one more than
	// the four steps a user fills in or answers.
	ProfileSetup = Variant{
		Name:  "profile-setup",
		Steps: []Step{StepWelcome, StepCredentials, StepPersonalData, StepProfession, StepAgreement},
	}
)

func (v Variant) validate() error {
	if len(v.Steps) < 2 || v.Steps[len(v.Steps)-1] != StepAgreement {
		return fmt.Errorf("variant %q must end with %s", v.Name, StepAgreement)
	}
	if slices.Contains(v.Steps[:len(v.Steps)-1], StepAgreement) {
		return fmt.Errorf("variant %q has more than one %s step", v.Name, StepAgreement)
	}
	return nil
}

// DeclinedNotice is shown after the agreement was declined.
const DeclinedNotice = "You declined the terms. Your entries were discarded; start again whenever you are ready."

var (
	ErrNotAgreementStep  = errors.New("wizard: only allowed on the agreement step")
	ErrAwaitingAgreement = errors.New("wizard: accept or decline the agreement to continue")
	ErrCommitInProgress  = errors.New("wizard: commit in progress")
	ErrFinished          = errors.New("wizard: already finished")
)

// StepError reports local validation failures of one step.
type StepError struct {
	Step   Step
	Fields validation.FieldErrors
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Fields.String())
}

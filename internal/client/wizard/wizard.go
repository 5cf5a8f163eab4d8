package wizard

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frontnickson/toolrole-sub001/internal/client/client"
	"github.com/frontnickson/toolrole-sub001/internal/client/models"
	"github.com/frontnickson/toolrole-sub001/internal/client/store"
	"github.com/frontnickson/toolrole-sub001/internal/client/validation"
	"github.com/frontnickson/toolrole-sub001/internal/logging"
)

// Session is the part of the session manager the wizard needs.
type Session interface {
	Register(ctx context.Context, req *client.RegisterRequest) error
	CheckEmailExists(ctx context.Context, email string) bool
	CheckUsernameExists(ctx context.Context, username string) bool
}

// Profile persists what registration itself does not carry.
type Profile interface {
	UploadAvatar(ctx context.Context, f models.Upload) error
	UpdateProfile(ctx context.Context, d models.Draft) error
}

type Deps struct {
	Session Session
	Profile Profile
	State   *store.Store
	Logger  logging.Logger
	// ProbeExistence makes the credentials step ask the server whether the
	// email or username is already in use.
	ProbeExistence bool
	Now            func() time.Time
}

// State is a snapshot of a Wizard.
type State struct {
	Variant      string
	CurrentStep  Step
	StepIndex    int
	StepCount    int
	Draft        models.Draft
	IsCommitting bool
	// Error is the message of the last failed commit.
	Error string
	// Fields holds the validation failures of the last Next call.
	Fields validation.FieldErrors
	Notice string
}

// CommitReport lists the follow-up calls that failed after the account was
// created. Those failures do not undo the registration.
type CommitReport struct {
	AvatarErr  error
	ProfileErr error
}

// Wizard is safe for concurrent use; operations are applied one at a time.
type Wizard struct {
	variant Variant
	session Session
	profile Profile
	state   *store.Store
	log     logging.Logger
	probe   bool
	now     func() time.Time

	mu         sync.Mutex
	idx        int
	committing bool
	done       bool
	lastErr    string
	fields     validation.FieldErrors
	notice     string
}

// New starts a run of variant with an empty draft.
func New(variant Variant, deps Deps) (*Wizard, error) {
	if err := variant.validate(); err != nil {
		return nil, err
	}
	w := &Wizard{
		variant: variant,
		session: deps.Session,
		profile: deps.Profile,
		state:   deps.State,
		log:     deps.Logger,
		probe:   deps.ProbeExistence,
		now:     deps.Now,
	}
	if w.log == nil {
		w.log = logging.NewNop()
	}
	if w.now == nil {
		w.now = time.Now
	}
	w.log = w.log.With("wizard", variant.Name, "run", uuid.NewString())
	w.state.ClearDraft()
	return w, nil
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		Variant:      w.variant.Name,
		CurrentStep:  w.currentLocked(),
		StepIndex:    w.idx,
		StepCount:    len(w.variant.Steps),
		Draft:        w.state.Draft(),
		IsCommitting: w.committing,
		Error:        w.lastErr,
		Fields:       maps.Clone(w.fields),
		Notice:       w.notice,
	}
}

func (w *Wizard) currentLocked() Step {
	switch {
	case w.done:
		return StepDone
	case w.committing:
		return StepCommitting
	default:
		return w.variant.Steps[w.idx]
	}
}

func (w *Wizard) checkIdleLocked() error {
	switch {
	case w.done:
		return ErrFinished
	case w.committing:
		return ErrCommitInProgress
	}
	return nil
}

// Next validates payload merged over the draft for the current step. On
// success payload is merged into the draft and the wizard advances; on
// failure it returns a *StepError and nothing changes but the reported
// fields.
func (w *Wizard) Next(ctx context.Context, payload models.Draft) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkIdleLocked(); err != nil {
		return err
	}
	step := w.variant.Steps[w.idx]
	if step == StepAgreement {
		return ErrAwaitingAgreement
	}

	merged := w.state.Draft().Merge(payload)
	fe := validateStep(step, merged, w.now())
	if len(fe) == 0 && step == StepCredentials && w.probe {
		fe = w.probeCredentials(ctx, merged)
	}
	if len(fe) > 0 {
		w.fields = fe
		return &StepError{Step: step, Fields: fe}
	}

	w.state.SetDraft(payload)
	w.idx++
	w.fields = nil
	w.lastErr = ""
	w.notice = ""
	w.log.Debug(ctx, "step completed", "step", step, "next", w.variant.Steps[w.idx])
	return nil
}

// Back moves to the previous step, keeping the draft. It is a no-op on the
// first step.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkIdleLocked(); err != nil {
		return err
	}
	if w.idx > 0 {
		w.idx--
	}
	w.fields = nil
	return nil
}

// Decline abandons the run from the agreement step: the draft is cleared,
// the wizard returns to its first step and State().Notice says why.
func (w *Wizard) Decline(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkIdleLocked(); err != nil {
		return err
	}
	if w.variant.Steps[w.idx] != StepAgreement {
		return ErrNotAgreementStep
	}

	w.state.ClearDraft()
	w.idx = 0
	w.fields = nil
	w.lastErr = ""
	w.notice = DeclinedNotice
	w.log.Info(ctx, "agreement declined")
	return nil
}

// Cancel abandons the run from any step: the draft, which may hold the
// password, is cleared and the wizard returns to its first step. It is
// refused while a commit is in flight.
func (w *Wizard) Cancel(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkIdleLocked(); err != nil {
		return err
	}
	w.state.ClearDraft()
	w.idx = 0
	w.fields = nil
	w.lastErr = ""
	w.notice = ""
	w.log.Info(ctx, "wizard cancelled")
	return nil
}

// Commit accepts the agreement and submits the draft: registration first,
// then the avatar upload and the remaining profile fields. Only a failed
// registration is returned as an error; it sends the wizard back to the
// last data step with the draft intact. Failures of the follow-up calls are
// logged and listed in the report.
func (w *Wizard) Commit(ctx context.Context) (*CommitReport, error) {
	w.mu.Lock()
	if err := w.checkIdleLocked(); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.variant.Steps[w.idx] != StepAgreement {
		w.mu.Unlock()
		return nil, ErrNotAgreementStep
	}
	w.committing = true
	w.lastErr = ""
	w.notice = ""
	draft := w.state.Draft()
	w.mu.Unlock()

	report, err := w.submit(ctx, draft)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.committing = false
	if err != nil {
		w.idx = len(w.variant.Steps) - 2
		w.lastErr = err.Error()
		return nil, err
	}
	w.state.ClearDraft()
	w.done = true
	return report, nil
}

func (w *Wizard) submit(ctx context.Context, draft models.Draft) (*CommitReport, error) {
	if err := w.session.Register(ctx, registerRequest(draft)); err != nil {
		w.log.Warn(ctx, "registration failed", "op", "commit", "kind", client.KindOf(err), "err", err)
		return nil, err
	}

	report := &CommitReport{}
	if draft.Avatar != nil {
		if err := w.profile.UploadAvatar(ctx, *draft.Avatar); err != nil {
			w.log.Warn(ctx, "avatar upload failed", "op", "commit", "err", err)
			report.AvatarErr = err
		}
	}
	if rest := remainingProfile(draft); !rest.IsEmpty() {
		if err := w.profile.UpdateProfile(ctx, rest); err != nil {
			w.log.Warn(ctx, "profile update failed", "op", "commit", "err", err)
			report.ProfileErr = err
		}
	}
	w.log.Info(ctx, "wizard committed",
		"avatar_failed", report.AvatarErr != nil, "profile_failed", report.ProfileErr != nil)
	return report, nil
}

// Err joins the follow-up failures, nil when everything succeeded.
func (r *CommitReport) Err() error {
	if r == nil {
		return nil
	}
	return errors.Join(r.AvatarErr, r.ProfileErr)
}

// registerRequest maps the draft onto the flat registration record.
func registerRequest(d models.Draft) *client.RegisterRequest {
	trim := func(p *string) string { return strings.TrimSpace(models.Deref(p)) }

	var links map[string]string
	for k, v := range d.SocialLinks {
		if v = strings.TrimSpace(v); v == "" {
			continue
		}
		if links == nil {
			links = make(map[string]string)
		}
		links[k] = v
	}

	return &client.RegisterRequest{
		Email:       trim(d.Email),
		Username:    trim(d.Username),
		Password:    models.Deref(d.Password),
		FirstName:   trim(d.FirstName),
		LastName:    trim(d.LastName),
		MiddleName:  trim(d.MiddleName),
		Gender:      trim(d.Gender),
		BirthDate:   trim(d.BirthDate),
		Phone:       trim(d.Phone),
		SocialLinks: links,
		Theme:       trim(d.Theme),
		Language:    trim(d.Language),
	}
}

// remainingProfile is the part of d the registration record does not carry.
func remainingProfile(d models.Draft) models.Draft {
	rest := models.Draft{
		Bio:        d.Bio,
		Location:   d.Location,
		Occupation: d.Occupation,
		Company:    d.Company,
		Website:    d.Website,
	}
	for _, p := range []**string{&rest.Bio, &rest.Location, &rest.Occupation, &rest.Company, &rest.Website} {
		if *p != nil && strings.TrimSpace(**p) == "" {
			*p = nil
		}
	}
	return rest
}

// Steps returns the step sequence of the run.
func (w *Wizard) Steps() []Step {
	return slices.Clone(w.variant.Steps)
}

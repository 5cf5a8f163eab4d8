package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/frontnickson/toolrole-sub001/internal/client/client"
	"github.com/frontnickson/toolrole-sub001/internal/client/models"
	"github.com/frontnickson/toolrole-sub001/internal/client/repositories/prefs"
	"github.com/frontnickson/toolrole-sub001/internal/client/store"
	"github.com/frontnickson/toolrole-sub001/internal/client/validation"
	"github.com/frontnickson/toolrole-sub001/internal/logging"
)

// MaxAvatarBytes caps the size of an uploaded avatar.
const MaxAvatarBytes = 5 << 20

var validate = validator.New()

// ProfileService mutates the signed-in user's profile and preferences on the
// server and mirrors accepted changes into the store. All methods return nil
// or an *client.AuthError.
type ProfileService interface {
	UpdateProfile(ctx context.Context, d models.Draft) error
	UpdateSettings(ctx context.Context, s Settings) error
	UploadAvatar(ctx context.Context, f models.Upload) error
}

// Settings are the preference fields changed through PUT /users/settings.
// Nil fields are left as they are.
type Settings struct {
	Theme              *string `validate:"omitempty,oneof=light dark system"`
	Language           *string `validate:"omitempty,bcp47_language_tag"`
	EmailNotifications *bool
	PushNotifications  *bool
	ShowEmail          *bool
	ShowOnlineStatus   *bool
}

func (s Settings) isEmpty() bool {
	return s.Theme == nil && s.Language == nil && s.EmailNotifications == nil &&
		s.PushNotifications == nil && s.ShowEmail == nil && s.ShowOnlineStatus == nil
}

type ProfileDeps struct {
	API     client.Client
	State   *store.Store
	Prefs   prefs.Repository
	Logger  logging.Logger
	Timeout time.Duration
	Now     func() time.Time
}

type profileService struct {
	api     client.Client
	state   *store.Store
	prefs   prefs.Repository
	log     logging.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewProfileService(deps ProfileDeps) ProfileService {
	p := &profileService{
		api:     deps.API,
		state:   deps.State,
		prefs:   deps.Prefs,
		log:     deps.Logger,
		timeout: deps.Timeout,
		now:     deps.Now,
	}
	if p.log == nil {
		p.log = logging.NewNop()
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// UpdateProfile sends the non-credential fields of d. Settings fields in d
// are ignored; use UpdateSettings for those.
func (p *profileService) UpdateProfile(ctx context.Context, d models.Draft) error {
	if !p.state.IsAuthenticated() {
		return notSignedIn()
	}
	d = profileFields(d)
	if d.IsEmpty() {
		return nil
	}
	if fe := validation.ValidateProfile(d, p.now()); len(fe) > 0 {
		return validationError(fe)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if _, err := p.api.UpdateProfile(callCtx, profileRequest(d)); err != nil {
		return classify(opProfile, err)
	}

	p.state.UpdateProfile(d)
	return nil
}

// profileFields keeps only what PUT /users/profile accepts.
func profileFields(d models.Draft) models.Draft {
	d = d.Profile()
	d.AvatarURL = nil
	d.Theme, d.Language = nil, nil
	d.EmailNotifications, d.PushNotifications = nil, nil
	d.ShowEmail, d.ShowOnlineStatus = nil, nil
	return d
}

func profileRequest(d models.Draft) *client.ProfileUpdateRequest {
	return &client.ProfileUpdateRequest{
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		MiddleName:  d.MiddleName,
		Gender:      d.Gender,
		BirthDate:   d.BirthDate,
		Bio:         d.Bio,
		Phone:       d.Phone,
		Location:    d.Location,
		Occupation:  d.Occupation,
		Company:     d.Company,
		Website:     d.Website,
		SocialLinks: d.SocialLinks,
	}
}

// UpdateSettings sends s, applies it to the store and persists the theme
// and language keys.
func (p *profileService) UpdateSettings(ctx context.Context, s Settings) error {
	if !p.state.IsAuthenticated() {
		return notSignedIn()
	}
	if s.isEmpty() {
		return nil
	}
	if err := validate.Struct(s); err != nil {
		return validationError(settingsErrors(err))
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err := p.api.UpdateSettings(callCtx, &client.SettingsRequest{
		Theme:              s.Theme,
		Language:           s.Language,
		EmailNotifications: s.EmailNotifications,
		PushNotifications:  s.PushNotifications,
		ShowEmail:          s.ShowEmail,
		ShowOnlineStatus:   s.ShowOnlineStatus,
	})
	if err != nil {
		return classify(opSettings, err)
	}

	p.state.UpdateProfile(models.Draft{
		Theme:              s.Theme,
		Language:           s.Language,
		EmailNotifications: s.EmailNotifications,
		PushNotifications:  s.PushNotifications,
		ShowEmail:          s.ShowEmail,
		ShowOnlineStatus:   s.ShowOnlineStatus,
	})
	p.persistPrefs(ctx, s)
	return nil
}

func (p *profileService) persistPrefs(ctx context.Context, s Settings) {
	if p.prefs == nil {
		return
	}
	values := map[string]string{}
	if s.Theme != nil {
		values[prefs.KeyTheme] = *s.Theme
	}
	if s.Language != nil {
		values[prefs.KeyLanguage] = *s.Language
	}
	if len(values) == 0 {
		return
	}
	if err := p.prefs.SetMany(ctx, values); err != nil {
		p.log.Warn(ctx, "persist preferences failed", "op", opSettings, "err", err)
	}
}

func settingsErrors(err error) validation.FieldErrors {
	fe := validation.FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe.Add("settings", err.Error())
		return fe
	}
	for _, v := range verrs {
		field := strings.ToLower(v.Field())
		fe.Add(field, fmt.Sprintf("%s has an unsupported value", field))
	}
	return fe
}

// UploadAvatar checks that f is an image within MaxAvatarBytes, uploads it
// and stores the returned URL on the current user.
func (p *profileService) UploadAvatar(ctx context.Context, f models.Upload) error {
	if !p.state.IsAuthenticated() {
		return notSignedIn()
	}

	fe := validation.FieldErrors{}
	switch {
	case len(f.Data) == 0:
		fe.Add("avatar", "File is empty")
	case len(f.Data) > MaxAvatarBytes:
		fe.Add("avatar", "File must be at most 5 MB")
	case !strings.HasPrefix(http.DetectContentType(f.Data), "image/"):
		fe.Add("avatar", "File must be an image")
	}
	if len(fe) > 0 {
		return validationError(fe)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	url, err := p.api.UploadAvatar(callCtx, f)
	if err != nil {
		return classify(opAvatar, err)
	}
	if url != "" {
		p.state.UpdateProfile(models.Draft{AvatarURL: &url})
	}
	return nil
}

func notSignedIn() *client.AuthError {
	return client.NewAuthError(client.KindSessionExpired, "", ErrNotSignedIn)
}

package cli

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"

	"github.com/frontnickson/toolrole-sub001/internal/client/models"
	"github.com/frontnickson/toolrole-sub001/internal/client/services"
	"github.com/frontnickson/toolrole-sub001/internal/filex"
)

var errNothingChanged = errors.New("nothing to change")

// Settings prompts for the preference fields. Blank answers leave a field
// as it is.
func (a *App) Settings(ctx context.Context) error {
	u := a.state.CurrentUser()
	if u == nil {
		return errSignedOut
	}

	var s services.Settings
	var err error
	if s.Theme, err = a.askField("Theme (light/dark/system)", nonEmpty(u.Theme), false); err != nil {
		return quitIsNil(err)
	}
	if s.Language, err = a.askField("Language (e.g. en, ru)", nonEmpty(u.Language), false); err != nil {
		return quitIsNil(err)
	}
	toggles := []struct {
		dst    **bool
		prompt string
		cur    bool
	}{
		{&s.EmailNotifications, "Email notifications", u.EmailNotifications},
		{&s.PushNotifications, "Push notifications", u.PushNotifications},
		{&s.ShowEmail, "Show email to others", u.ShowEmail},
		{&s.ShowOnlineStatus, "Show online status", u.ShowOnlineStatus},
	}
	for _, t := range toggles {
		if *t.dst, err = getYesNo(a.reader, t.prompt+" ["+onOff(t.cur)+"]", nil, a.out); err != nil {
			return err
		}
	}

	if s == (services.Settings{}) {
		return errNothingChanged
	}
	if err := a.profileService.UpdateSettings(ctx, s); err != nil {
		return err
	}
	printlnFn("Settings saved.")
	return nil
}

// Avatar uploads an image file as the new avatar.
func (a *App) Avatar(ctx context.Context) error {
	path, err := getSimpleText(a.reader, "Image path", a.out)
	if err != nil {
		return err
	}
	if path == "" {
		return errNothingChanged
	}

	data, err := filex.ReadLimited(path, services.MaxAvatarBytes)
	if err != nil {
		return err
	}
	upload := models.Upload{
		FileName:    filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}
	if err := a.profileService.UploadAvatar(ctx, upload); err != nil {
		return err
	}
	printlnFn("Avatar updated.")
	return nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// quitIsNil turns the prompt navigation errors into a silent cancel.
func quitIsNil(err error) error {
	if errors.Is(err, errQuit) || errors.Is(err, errBack) {
		printlnFn("Cancelled.")
		return nil
	}
	return err
}

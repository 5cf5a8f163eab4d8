package models

import (
	"maps"
	"time"
)

// Draft is a partial UserRecord accumulated by forms and wizards before it
// is committed. A nil field means "not provided"; merging never clears a
// field the incoming draft does not mention.
type Draft struct {
	Email           *string `json:"email,omitempty"`
	Username        *string `json:"username,omitempty"`
	Password        *string `json:"-"`
	PasswordConfirm *string `json:"-"`

	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	MiddleName *string `json:"middle_name,omitempty"`
	Gender     *string `json:"gender,omitempty"`
	BirthDate  *string `json:"birth_date,omitempty"`

	Bio         *string           `json:"bio,omitempty"`
	AvatarURL   *string           `json:"avatar_url,omitempty"`
	Phone       *string           `json:"phone_number,omitempty"`
	Location    *string           `json:"location,omitempty"`
	Occupation  *string           `json:"occupation,omitempty"`
	Company     *string           `json:"company,omitempty"`
	Website     *string           `json:"website,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`

	Theme              *string `json:"theme,omitempty"`
	Language           *string `json:"language,omitempty"`
	EmailNotifications *bool   `json:"email_notifications,omitempty"`
	PushNotifications  *bool   `json:"push_notifications,omitempty"`
	ShowEmail          *bool   `json:"show_email,omitempty"`
	ShowOnlineStatus   *bool   `json:"show_online_status,omitempty"`

	Avatar *Upload `json:"-"`
}

// String and Bool return pointers to copies of v, for building drafts inline.
func String(v string) *string { return &v }
func Bool(v bool) *bool       { return &v }

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func pick[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// Merge returns a new draft holding d overlaid with every field set in next.
// Social links are merged key by key.
func (d Draft) Merge(next Draft) Draft {
	out := d.clone()

	pick(&out.Email, next.Email)
	pick(&out.Username, next.Username)
	pick(&out.Password, next.Password)
	pick(&out.PasswordConfirm, next.PasswordConfirm)

	pick(&out.FirstName, next.FirstName)
	pick(&out.LastName, next.LastName)
	pick(&out.MiddleName, next.MiddleName)
	pick(&out.Gender, next.Gender)
	pick(&out.BirthDate, next.BirthDate)

	pick(&out.Bio, next.Bio)
	pick(&out.AvatarURL, next.AvatarURL)
	pick(&out.Phone, next.Phone)
	pick(&out.Location, next.Location)
	pick(&out.Occupation, next.Occupation)
	pick(&out.Company, next.Company)
	pick(&out.Website, next.Website)

	pick(&out.Theme, next.Theme)
	pick(&out.Language, next.Language)
	pick(&out.EmailNotifications, next.EmailNotifications)
	pick(&out.PushNotifications, next.PushNotifications)
	pick(&out.ShowEmail, next.ShowEmail)
	pick(&out.ShowOnlineStatus, next.ShowOnlineStatus)

	if len(next.SocialLinks) > 0 {
		if out.SocialLinks == nil {
			out.SocialLinks = make(map[string]string, len(next.SocialLinks))
		}
		maps.Copy(out.SocialLinks, next.SocialLinks)
	}
	if next.Avatar != nil {
		a := *next.Avatar
		out.Avatar = &a
	}
	return out
}

func (d Draft) clone() Draft {
	// Pointer targets are never written through, so sharing them is safe.
	out := d
	out.SocialLinks = maps.Clone(d.SocialLinks)
	if d.Avatar != nil {
		a := *d.Avatar
		out.Avatar = &a
	}
	return out
}

// Clone returns a copy of d that shares no mutable state with it.
func (d Draft) Clone() Draft {
	return Draft{}.Merge(d)
}

// IsEmpty reports whether no field is set.
func (d Draft) IsEmpty() bool {
	return d.Email == nil && d.Username == nil && d.Password == nil && d.PasswordConfirm == nil &&
		d.Profile().isEmptyProfile() && d.Avatar == nil
}

func (d Draft) isEmptyProfile() bool {
	return d.FirstName == nil && d.LastName == nil && d.MiddleName == nil && d.Gender == nil &&
		d.BirthDate == nil && d.Bio == nil && d.AvatarURL == nil && d.Phone == nil &&
		d.Location == nil && d.Occupation == nil && d.Company == nil && d.Website == nil &&
		len(d.SocialLinks) == 0 && d.Theme == nil && d.Language == nil &&
		d.EmailNotifications == nil && d.PushNotifications == nil &&
		d.ShowEmail == nil && d.ShowOnlineStatus == nil
}

// Profile returns only the non-credential fields of d: everything except
// email, username, passwords and the avatar file.
func (d Draft) Profile() Draft {
	p := d.clone()
	p.Email, p.Username, p.Password, p.PasswordConfirm = nil, nil, nil, nil
	p.Avatar = nil
	return p
}

// ApplyTo shallow-merges the profile fields of d into u and stamps UpdatedAt.
// Email and username are only filled in when u does not have them yet.
func (d Draft) ApplyTo(u *UserRecord, now time.Time) {
	if u == nil {
		return
	}
	if u.Email == "" && d.Email != nil {
		u.Email = *d.Email
	}
	if u.Username == "" && d.Username != nil {
		u.Username = *d.Username
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.FirstName, d.FirstName)
	set(&u.LastName, d.LastName)
	set(&u.MiddleName, d.MiddleName)
	set(&u.Gender, d.Gender)
	set(&u.BirthDate, d.BirthDate)
	set(&u.Bio, d.Bio)
	set(&u.AvatarURL, d.AvatarURL)
	set(&u.Phone, d.Phone)
	set(&u.Location, d.Location)
	set(&u.Occupation, d.Occupation)
	set(&u.Company, d.Company)
	set(&u.Website, d.Website)
	set(&u.Theme, d.Theme)
	set(&u.Language, d.Language)

	flag := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	flag(&u.EmailNotifications, d.EmailNotifications)
	flag(&u.PushNotifications, d.PushNotifications)
	flag(&u.ShowEmail, d.ShowEmail)
	flag(&u.ShowOnlineStatus, d.ShowOnlineStatus)

	if len(d.SocialLinks) > 0 {
		u.SocialLinks = maps.Clone(d.SocialLinks)
	}
	u.UpdatedAt = now
}

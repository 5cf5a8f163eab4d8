// Package models defines the user profile record shared by the session
// store, the wizard and the API client, together with the partial record
// (Draft) used while forms are being filled in.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"
)

// UserID is the server-side identifier of a user. The backend may encode it
// either as a JSON string or as a number; both forms decode to the same value.
type UserID string

func (id *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("user id %q is not an integer", n.String())
	}
	*id = UserID(n.String())
	return nil
}

// UserRecord is the committed, authoritative profile of the signed-in user.
//
// ID, Email and Username are immutable once set; see Draft.ApplyTo.
type UserRecord struct {
	ID          UserID `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	AccessToken string `json:"access_token,omitempty"`

	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	MiddleName string `json:"middle_name,omitempty"`
	Gender     string `json:"gender,omitempty"`
	BirthDate  string `json:"birth_date,omitempty"`

	Bio         string            `json:"bio,omitempty"`
	AvatarURL   string            `json:"avatar_url,omitempty"`
	Phone       string            `json:"phone_number,omitempty"`
	Location    string            `json:"location,omitempty"`
	Occupation  string            `json:"occupation,omitempty"`
	Company     string            `json:"company,omitempty"`
	Website     string            `json:"website,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`

	Theme              string `json:"theme,omitempty"`
	Language           string `json:"language,omitempty"`
	EmailNotifications bool   `json:"email_notifications"`
	PushNotifications  bool   `json:"push_notifications"`
	ShowEmail          bool   `json:"show_email"`
	ShowOnlineStatus   bool   `json:"show_online_status"`

	IsActive   bool `json:"is_active"`
	IsVerified bool `json:"is_verified"`
	IsOnline   bool `json:"is_online"`

	FriendIDs []string `json:"friend_ids,omitempty"`
	TeamIDs   []string `json:"team_ids,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`

	// Provisional marks a record synthesized on the client because the
	// canonical profile could not be fetched after a successful login.
	Provisional bool `json:"-"`
}

// Clone returns a deep copy of u. A nil receiver yields nil.
func (u *UserRecord) Clone() *UserRecord {
	if u == nil {
		return nil
	}
	c := *u
	c.SocialLinks = maps.Clone(u.SocialLinks)
	c.FriendIDs = slices.Clone(u.FriendIDs)
	c.TeamIDs = slices.Clone(u.TeamIDs)
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}

// DisplayName is the name shown in prompts: first and last name when known,
// the username otherwise.
func (u *UserRecord) DisplayName() string {
	switch {
	case u == nil:
		return ""
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// Upload is an in-memory file selected by the user, e.g. an avatar image.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

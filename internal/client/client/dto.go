package client

// Request and response bodies of the backend endpoints. Field names follow
// the server's snake_case convention.

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// RegisterRequest is the flat registration record of POST /auth/register.
type RegisterRequest struct {
	Email       string            `json:"email"`
	Username    string            `json:"username"`
	Password    string            `json:"password"`
	FirstName   string            `json:"first_name,omitempty"`
	LastName    string            `json:"last_name,omitempty"`
	MiddleName  string            `json:"middle_name,omitempty"`
	Gender      string            `json:"gender,omitempty"`
	BirthDate   string            `json:"birth_date,omitempty"`
	Phone       string            `json:"phone_number,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
	Theme       string            `json:"theme,omitempty"`
	Language    string            `json:"language,omitempty"`
}

// ProfileUpdateRequest carries only the fields being changed.
type ProfileUpdateRequest struct {
	FirstName   *string           `json:"first_name,omitempty"`
	LastName    *string           `json:"last_name,omitempty"`
	MiddleName  *string           `json:"middle_name,omitempty"`
	Gender      *string           `json:"gender,omitempty"`
	BirthDate   *string           `json:"birth_date,omitempty"`
	Bio         *string           `json:"bio,omitempty"`
	Phone       *string           `json:"phone_number,omitempty"`
	Location    *string           `json:"location,omitempty"`
	Occupation  *string           `json:"occupation,omitempty"`
	Company     *string           `json:"company,omitempty"`
	Website     *string           `json:"website,omitempty"`
	SocialLinks map[string]string `json:"social_links,omitempty"`
}

func (r *ProfileUpdateRequest) IsEmpty() bool {
	return r.FirstName == nil && r.LastName == nil && r.MiddleName == nil && r.Gender == nil &&
		r.BirthDate == nil && r.Bio == nil && r.Phone == nil && r.Location == nil &&
		r.Occupation == nil && r.Company == nil && r.Website == nil && len(r.SocialLinks) == 0
}

type SettingsRequest struct {
	Theme              *string `json:"theme,omitempty"`
	Language           *string `json:"language,omitempty"`
	EmailNotifications *bool   `json:"email_notifications,omitempty"`
	PushNotifications  *bool   `json:"push_notifications,omitempty"`
	ShowEmail          *bool   `json:"show_email,omitempty"`
	ShowOnlineStatus   *bool   `json:"show_online_status,omitempty"`
}

type Board struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type existsRequest struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

type avatarResponse struct {
	AvatarURL string `json:"avatar_url"`
}

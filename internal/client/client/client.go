package client

import (
	"context"

	"github.com/frontnickson/toolrole-sub001/internal/client/models"
)

// Client is the contract of the task-board backend as seen by the session
// layer. Every call honours ctx cancellation and deadlines.
type Client interface {
	LoginEmail(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Me(ctx context.Context) (*models.UserRecord, error)
	Register(ctx context.Context, req *RegisterRequest) (*models.UserRecord, error)
	CheckEmail(ctx context.Context, email string) (bool, error)
	CheckUsername(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, req *ProfileUpdateRequest) (*models.UserRecord, error)
	UpdateSettings(ctx context.Context, req *SettingsRequest) error
	UploadAvatar(ctx context.Context, file models.Upload) (string, error)
	ListBoards(ctx context.Context) ([]Board, error)
}

// TokenSource supplies the bearer token attached to outbound requests.
type TokenSource interface {
	Token() (string, bool)
}

type accessTokenKey struct{}

// WithAccessToken makes requests issued with the returned context carry tok
// instead of the token held by the client's TokenSource. The session layer
// uses it to fetch the profile for a token it has not committed yet.
func WithAccessToken(ctx context.Context, tok string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, tok)
}

// AccessTokenFrom returns the token installed by WithAccessToken, if any.
func AccessTokenFrom(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(accessTokenKey{}).(string)
	return tok, ok && tok != ""
}

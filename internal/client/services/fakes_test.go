package services

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/frontnickson/toolrole-sub001/internal/client/client"
	"github.com/frontnickson/toolrole-sub001/internal/client/models"
)

// fakeAPI implements client.Client. Ret/Err fields script the responses,
// Last* fields record what the service sent, and the optional hooks let a
// test run code while a call is in flight.
type fakeAPI struct {
	mu sync.Mutex

	LoginRet *client.TokenResponse
	LoginErr error
	OnLogin  func(ctx context.Context)

	MeRet *models.UserRecord
	MeErr error

	RegisterErr error

	CheckEmailRet    bool
	CheckEmailErr    error
	CheckUsernameRet bool
	CheckUsernameErr error
	ProbePanic       bool

	UpdateProfileErr  error
	UpdateSettingsErr error

	AvatarRet string
	AvatarErr error

	BoardsRet []client.Board
	BoardsErr error
	OnBoards  func(ctx context.Context)

	LastLogin         client.LoginRequest
	LastMeToken       string
	LastRegister      *client.RegisterRequest
	LastProfile       *client.ProfileUpdateRequest
	LastSettings      *client.SettingsRequest
	LastAvatar        models.Upload
	LoginCalls        int
	MeCalls           int
	RegisterCalls     int
	ProfileCalls      int
	AvatarCalls       int
	CheckEmailCalls   int
	LastCheckUsername string
}

var _ client.Client = (*fakeAPI)(nil)

func (f *fakeAPI) LoginEmail(ctx context.Context, req client.LoginRequest) (*client.TokenResponse, error) {
	f.mu.Lock()
	f.LoginCalls++
	f.LastLogin = req
	hook := f.OnLogin
	f.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	return f.LoginRet, nil
}

func (f *fakeAPI) Me(ctx context.Context) (*models.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MeCalls++
	f.LastMeToken = bearerOf(ctx)
	if f.MeErr != nil {
		return nil, f.MeErr
	}
	return f.MeRet.Clone(), nil
}

func (f *fakeAPI) Register(ctx context.Context, req *client.RegisterRequest) (*models.UserRecord, error) {
	f.RegisterCalls++
	f.LastRegister = req
	if f.RegisterErr != nil {
		return nil, f.RegisterErr
	}
	return &models.UserRecord{ID: "1", Email: req.Email, Username: req.Username}, nil
}

func (f *fakeAPI) CheckEmail(ctx context.Context, email string) (bool, error) {
	f.CheckEmailCalls++
	if f.ProbePanic {
		panic("probe exploded")
	}
	return f.CheckEmailRet, f.CheckEmailErr
}

func (f *fakeAPI) CheckUsername(ctx context.Context, username string) (bool, error) {
	f.LastCheckUsername = username
	return f.CheckUsernameRet, f.CheckUsernameErr
}

func (f *fakeAPI) UpdateProfile(ctx context.Context, req *client.ProfileUpdateRequest) (*models.UserRecord, error) {
	f.ProfileCalls++
	f.LastProfile = req
	if f.UpdateProfileErr != nil {
		return nil, f.UpdateProfileErr
	}
	return &models.UserRecord{ID: "1"}, nil
}

func (f *fakeAPI) UpdateSettings(ctx context.Context, req *client.SettingsRequest) error {
	f.LastSettings = req
	return f.UpdateSettingsErr
}

func (f *fakeAPI) UploadAvatar(ctx context.Context, file models.Upload) (string, error) {
	f.AvatarCalls++
	f.LastAvatar = file
	if f.AvatarErr != nil {
		return "", f.AvatarErr
	}
	return f.AvatarRet, nil
}

func (f *fakeAPI) ListBoards(ctx context.Context) ([]client.Board, error) {
	if f.OnBoards != nil {
		f.OnBoards(ctx)
	}
	return f.BoardsRet, f.BoardsErr
}

func bearerOf(ctx context.Context) string {
	tok, _ := client.AccessTokenFrom(ctx)
	return tok
}

// memPrefs is an in-memory prefs.Repository.
type memPrefs struct {
	mu       sync.Mutex
	m        map[string]string
	DelErr   error
	DelPanic bool
	SetErr   error
}

func newMemPrefs() *memPrefs { return &memPrefs{m: map[string]string{}} }

func (p *memPrefs) Get(ctx context.Context, key string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.m[key]
	return v, ok, nil
}

func (p *memPrefs) Set(ctx context.Context, key, value string) error {
	return p.SetMany(ctx, map[string]string{key: value})
}

func (p *memPrefs) SetMany(ctx context.Context, values map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SetErr != nil {
		return p.SetErr
	}
	maps.Copy(p.m, values)
	return nil
}

func (p *memPrefs) Delete(ctx context.Context, keys ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.DelPanic {
		panic("storage gone")
	}
	if p.DelErr != nil {
		return p.DelErr
	}
	for _, k := range keys {
		delete(p.m, k)
	}
	return nil
}

func (p *memPrefs) List(ctx context.Context) (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.m), nil
}

func (p *memPrefs) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.m)
	return nil
}

type fakeHydrator struct {
	Calls int
	Err   error
	Panic bool
}

func (h *fakeHydrator) Hydrate(ctx context.Context, guard WriteGuard) error {
	h.Calls++
	if h.Panic {
		panic("hydrate")
	}
	return h.Err
}

var errBoom = errors.New("boom")

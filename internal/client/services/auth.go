// Package services contains the application services of the task-board
// client. This file defines the session manager: login, registration with
// automatic sign-in, logout, session restore and the advisory existence
// probes used by sign-up forms.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/frontnickson/toolrole-sub001/internal/client/client"
	"github.com/frontnickson/toolrole-sub001/internal/client/models"
	"github.com/frontnickson/toolrole-sub001/internal/client/repositories/prefs"
	"github.com/frontnickson/toolrole-sub001/internal/client/store"
	"github.com/frontnickson/toolrole-sub001/internal/client/token"
	"github.com/frontnickson/toolrole-sub001/internal/client/validation"
	"github.com/frontnickson/toolrole-sub001/internal/common"
	"github.com/frontnickson/toolrole-sub001/internal/logging"
)

// DefaultTimeout bounds every network call when AuthDeps.Timeout is zero.
const DefaultTimeout = 15 * time.Second

// AuthService defines the session operations used by forms and wizards.
//
// Contract:
//   - Login, Register and Restore return nil or an *client.AuthError; they
//     never panic and never return a raw transport error.
//   - Register signs the new user in with the same credentials on success.
//   - Logout always leaves the session cleared.
//   - CheckEmailExists and CheckUsernameExists report false on any failure.
type AuthService interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, req *client.RegisterRequest) error
	Logout(ctx context.Context)
	Restore(ctx context.Context) error
	CheckEmailExists(ctx context.Context, email string) bool
	CheckUsernameExists(ctx context.Context, username string) bool
}

// Hydrator loads the data the main screen needs right after sign-in.
// Local writes go through guard so they are dropped once the session that
// triggered the hydration has ended.
type Hydrator interface {
	Hydrate(ctx context.Context, guard WriteGuard) error
}

// WriteGuard runs write only while the session it was issued for is still
// current, and returns ErrSessionChanged otherwise.
type WriteGuard func(write func() error) error

// ErrSessionChanged reports that a sign-in or sign-out happened since a
// WriteGuard was issued.
var ErrSessionChanged = errors.New("services: session changed")

// AuthDeps wires an AuthService. API, Tokens and State are required.
type AuthDeps struct {
	API      client.Client
	Tokens   *token.Store
	State    *store.Store
	Prefs    prefs.Repository
	Hydrator Hydrator
	Logger   logging.Logger
	Timeout  time.Duration
	Now      func() time.Time
}

type authService struct {
	api      client.Client
	tokens   *token.Store
	state    *store.Store
	prefs    prefs.Repository
	hydrator Hydrator
	log      logging.Logger
	timeout  time.Duration
	now      func() time.Time

	// mu serialises the commit step of login/restore against logout so a
	// session is never installed after a newer sign-out.
	mu sync.Mutex
}

// NewAuthService constructs an AuthService from deps, filling in defaults
// for the optional ones.
func NewAuthService(deps AuthDeps) AuthService {
	a := &authService{
		api:      deps.API,
		tokens:   deps.Tokens,
		state:    deps.State,
		prefs:    deps.Prefs,
		hydrator: deps.Hydrator,
		log:      deps.Logger,
		timeout:  deps.Timeout,
		now:      deps.Now,
	}
	if a.log == nil {
		a.log = logging.NewNop()
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

func (a *authService) Login(ctx context.Context, email, password string) error {
	return a.run(ctx, opLogin, func(ctx context.Context) error {
		fe := validation.FieldErrors{}
		if !validation.ValidateEmail(email) {
			fe.Add("email", "Enter a valid email address")
		}
		if password == "" {
			fe.Add("password", "Password is required")
		}
		if len(fe) > 0 {
			return validationError(fe)
		}
		a.clearBoardCache(ctx, opLogin)
		return a.login(ctx, strings.TrimSpace(email), password)
	})
}

func (a *authService) Register(ctx context.Context, req *client.RegisterRequest) error {
	return a.run(ctx, opRegister, func(ctx context.Context) error {
		if req == nil {
			return client.NewAuthError(client.KindValidation, "", errors.New("nil register request"))
		}
		if fe := validation.ValidateCredentials(req.Email, req.Username, req.Password); len(fe) > 0 {
			return validationError(fe)
		}
		a.clearBoardCache(ctx, opRegister)

		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		_, err := a.api.Register(callCtx, req)
		cancel()
		if err != nil {
			return classify(opRegister, err)
		}
		a.log.Info(ctx, "account created", "email", common.MaskEmail(req.Email))

		return a.login(ctx, strings.TrimSpace(req.Email), req.Password)
	})
}

// login exchanges credentials for a token, resolves the profile and commits
// both, unless another login or logout finished first.
func (a *authService) login(ctx context.Context, email, password string) error {
	gen := a.state.Generation()

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	resp, err := a.api.LoginEmail(callCtx, client.LoginRequest{Email: email, Password: password})
	cancel()
	if err != nil {
		return classify(opLogin, err)
	}
	if resp == nil || resp.AccessToken == "" {
		return client.NewAuthError(client.KindUnknown, "", errors.New("login response carries no access token"))
	}

	user := a.fetchProfile(ctx, resp.AccessToken, email)
	user.AccessToken = resp.AccessToken

	gen, err = a.commit(ctx, gen, resp.AccessToken, user)
	if err != nil {
		return err
	}
	a.log.Info(ctx, "signed in", "email", common.MaskEmail(email), "provisional", user.Provisional)

	a.hydrate(ctx, gen)
	return nil
}

// fetchProfile asks the server for the profile behind tok. Any failure
// degrades to a provisional record built from email.
func (a *authService) fetchProfile(ctx context.Context, tok, email string) *models.UserRecord {
	callCtx, cancel := context.WithTimeout(client.WithAccessToken(ctx, tok), a.timeout)
	defer cancel()

	u, err := a.api.Me(callCtx)
	switch {
	case err != nil:
		a.log.Warn(ctx, "profile fetch failed, using provisional user", "op", opLogin, "err", err)
	case u == nil || u.ID == "":
		a.log.Warn(ctx, "profile response has no id, using provisional user", "op", opLogin)
	default:
		return u
	}
	return fallbackUser(email, a.now())
}

// fallbackUser synthesizes the smallest usable record for email.
func fallbackUser(email string, now time.Time) *models.UserRecord {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	login := now
	return &models.UserRecord{
		Email:              email,
		Username:           local,
		FirstName:          local,
		Theme:              "light",
		Language:           "en",
		EmailNotifications: true,
		PushNotifications:  true,
		ShowOnlineStatus:   true,
		IsActive:           true,
		IsOnline:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
		LastLogin:          &login,
		Provisional:        true,
	}
}

// commit installs tok and user unless the session generation moved past
// gen. It returns the generation of the installed session.
func (a *authService) commit(ctx context.Context, gen uint64, tok string, user *models.UserRecord) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// the token goes in first so subscribers notified by the commit can
	// already issue authorised calls
	prev, hadPrev := a.tokens.Token()
	a.tokens.SetToken(tok)
	if !a.state.CommitUser(gen, user) {
		if hadPrev {
			a.tokens.SetToken(prev)
		} else {
			a.tokens.ClearToken()
		}
		a.log.Warn(ctx, "session changed during sign-in, result discarded", "op", opLogin)
		return 0, client.NewAuthError(client.KindSuperseded, "", nil)
	}

	if a.prefs != nil {
		if err := a.prefs.Set(ctx, prefs.KeyAuthToken, tok); err != nil {
			a.log.Warn(ctx, "persist token failed", "op", opLogin, "err", err)
		}
	}
	return a.state.Generation(), nil
}

func (a *authService) hydrate(ctx context.Context, gen uint64) {
	if a.hydrator == nil {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	err := safeCall(func() error { return a.hydrator.Hydrate(callCtx, a.guardFor(gen)) })
	switch {
	case errors.Is(err, ErrSessionChanged):
		a.log.Debug(ctx, "session ended during hydration, writes dropped", "op", "hydrate")
	case err != nil:
		a.log.Warn(ctx, "post-login hydration failed", "op", "hydrate", "err", err)
	}
}

// guardFor serialises write with logout and runs it only while gen is
// still the current session generation.
func (a *authService) guardFor(gen uint64) WriteGuard {
	return func(write func() error) error {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.state.Generation() != gen {
			return ErrSessionChanged
		}
		return write()
	}
}

// Restore re-validates a token persisted by an earlier run. It returns nil
// without signing in when no token was kept.
func (a *authService) Restore(ctx context.Context) error {
	return a.run(ctx, opRestore, func(ctx context.Context) error {
		if a.prefs == nil {
			return nil
		}
		tok, ok, err := a.prefs.Get(ctx, prefs.KeyAuthToken)
		if err != nil {
			return client.NewAuthError(client.KindUnknown, "", fmt.Errorf("read stored token: %w", err))
		}
		if !ok || tok == "" {
			return nil
		}

		if exp, ok := token.ParseExpiry(tok); ok && !a.now().Before(exp) {
			a.forgetToken(ctx)
			return client.NewAuthError(client.KindSessionExpired, "", nil)
		}

		gen := a.state.Generation()
		callCtx, cancel := context.WithTimeout(client.WithAccessToken(ctx, tok), a.timeout)
		u, err := a.api.Me(callCtx)
		cancel()
		if err != nil {
			ae := classify(opRestore, err)
			if ae.Kind == client.KindSessionExpired {
				a.forgetToken(ctx)
			}
			return ae
		}
		if u == nil || u.ID == "" {
			return client.NewAuthError(client.KindUnknown, "", errors.New("profile response has no id"))
		}
		u.AccessToken = tok

		gen, err = a.commit(ctx, gen, tok, u)
		if err != nil {
			return err
		}
		a.log.Info(ctx, "session restored", "email", common.MaskEmail(u.Email))
		a.hydrate(ctx, gen)
		return nil
	})
}

func (a *authService) forgetToken(ctx context.Context) {
	if err := a.prefs.Delete(ctx, prefs.KeyAuthToken); err != nil {
		a.log.Warn(ctx, "drop stored token failed", "err", err)
	}
}

// Logout clears the token, the session and the cached board keys. Each
// step runs even if an earlier one fails; failures are only logged.
func (a *authService) Logout(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"clear token", func() error { a.tokens.ClearToken(); return nil }},
		{"clear session", func() error { a.state.ClearCurrentUser(); return nil }},
		{"clear cached keys", func() error {
			if a.prefs == nil {
				return nil
			}
			return a.prefs.Delete(ctx, append([]string{prefs.KeyAuthToken}, prefs.BoardCacheKeys...)...)
		}},
	}
	for _, s := range steps {
		if err := safeCall(s.fn); err != nil {
			a.log.Warn(ctx, "logout step failed", "op", "logout", "step", s.name, "err", err)
		}
	}
	a.log.Info(ctx, "signed out")
}

func (a *authService) CheckEmailExists(ctx context.Context, email string) bool {
	if !validation.ValidateEmail(email) {
		return false
	}
	return a.probe(ctx, "check-email", func(ctx context.Context) (bool, error) {
		return a.api.CheckEmail(ctx, strings.TrimSpace(email))
	})
}

func (a *authService) CheckUsernameExists(ctx context.Context, username string) bool {
	if len(validation.ValidateUsername(username)) > 0 {
		return false
	}
	return a.probe(ctx, "check-username", func(ctx context.Context) (bool, error) {
		return a.api.CheckUsername(ctx, strings.TrimSpace(username))
	})
}

func (a *authService) probe(ctx context.Context, name string, fn func(context.Context) (bool, error)) bool {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var exists bool
	err := safeCall(func() error {
		var err error
		exists, err = fn(callCtx)
		return err
	})
	if err != nil {
		a.log.Warn(ctx, "existence probe failed", "op", name, "err", err)
		return false
	}
	return exists
}

// run wraps a session operation with the loading flag, the store error
// message and panic recovery.
func (a *authService) run(ctx context.Context, op operation, fn func(context.Context) error) (err error) {
	a.state.SetLoading(true)
	a.state.SetError("")

	defer func() {
		if r := recover(); r != nil {
			a.log.Error(ctx, "session operation panicked", "op", op, "panic", r)
			err = client.NewAuthError(client.KindUnknown, "", fmt.Errorf("%s: panic: %v", op, r))
		}
		a.state.SetLoading(false)

		var ae *client.AuthError
		if errors.As(err, &ae) && ae.Kind != client.KindSuperseded {
			a.state.SetError(ae.Message)
		}
	}()

	if err := fn(ctx); err != nil {
		return classify(op, err)
	}
	return nil
}

func (a *authService) clearBoardCache(ctx context.Context, op operation) {
	if a.prefs == nil {
		return
	}
	if err := safeCall(func() error { return a.prefs.Delete(ctx, prefs.BoardCacheKeys...) }); err != nil {
		a.log.Warn(ctx, "clear board cache failed", "op", op, "err", err)
	}
}

func validationError(fe validation.FieldErrors) *client.AuthError {
	ae := client.NewAuthError(client.KindValidation, "", nil)
	ae.Fields = fe
	return ae
}

// safeCall runs fn, turning a panic into an error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

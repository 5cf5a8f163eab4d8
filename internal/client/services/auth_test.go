package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontnickson/toolrole-sub001/internal/client/client"
	"github.com/frontnickson/toolrole-sub001/internal/client/models"
	"github.com/frontnickson/toolrole-sub001/internal/client/repositories/prefs"
	"github.com/frontnickson/toolrole-sub001/internal/client/store"
	"github.com/frontnickson/toolrole-sub001/internal/client/token"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type harness struct {
	api    *fakeAPI
	tokens *token.Store
	state  *store.Store
	prefs  *memPrefs
	hyd    *fakeHydrator
	svc    AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		api: &fakeAPI{
			LoginRet: &client.TokenResponse{AccessToken: "tok-1", TokenType: "bearer", ExpiresIn: 3600},
			MeRet:    &models.UserRecord{ID: "42", Email: "a@b.com", Username: "ann", FirstName: "Ann"},
		},
		tokens: token.NewStore(),
		state:  store.NewWithClock(func() time.Time { return fixedNow }),
		prefs:  newMemPrefs(),
		hyd:    &fakeHydrator{},
	}
	h.svc = NewAuthService(AuthDeps{
		API:      h.api,
		Tokens:   h.tokens,
		State:    h.state,
		Prefs:    h.prefs,
		Hydrator: h.hyd,
		Timeout:  time.Second,
		Now:      func() time.Time { return fixedNow },
	})
	return h
}

func (h *harness) token() string {
	tok, _ := h.tokens.Token()
	return tok
}

func TestLogin_Success(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.prefs.SetMany(ctx, map[string]string{prefs.KeySelectedBoardID: "old", prefs.KeyTheme: "dark"}))

	err := h.svc.Login(ctx, "a@b.com", "X")
	require.NoError(t, err)

	st := h.state.Snapshot()
	assert.True(t, st.IsAuthenticated)
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.Error)
	require.NotNil(t, st.CurrentUser)
	assert.Equal(t, "a@b.com", st.CurrentUser.Email)
	assert.Equal(t, "tok-1", st.CurrentUser.AccessToken)
	assert.False(t, st.CurrentUser.Provisional)

	assert.Equal(t, "tok-1", h.token())
	assert.Equal(t, client.LoginRequest{Email: "a@b.com", Password: "X"}, h.api.LastLogin)
	assert.Equal(t, "tok-1", h.api.LastMeToken, "profile must be fetched with the new token")

	m, _ := h.prefs.List(ctx)
	assert.Equal(t, map[string]string{prefs.KeyTheme: "dark", prefs.KeyAuthToken: "tok-1"}, m)
	assert.Equal(t, 1, h.hyd.Calls)
}

func TestLogin_ProfileFetchFailure_UsesProvisionalUser(t *testing.T) {
	tests := []struct {
		name  string
		meRet *models.UserRecord
		meErr error
	}{
		{name: "error", meErr: &client.APIError{Status: http.StatusInternalServerError}},
		{name: "missing id", meRet: &models.UserRecord{Email: "a@b.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.api.MeRet, h.api.MeErr = tt.meRet, tt.meErr

			require.NoError(t, h.svc.Login(context.Background(), "ann.lee@b.com", "X"))

			u := h.state.CurrentUser()
			require.NotNil(t, u)
			assert.True(t, u.Provisional)
			assert.Equal(t, "ann.lee@b.com", u.Email)
			assert.Equal(t, "ann.lee", u.Username)
			assert.Equal(t, "ann.lee", u.FirstName)
			assert.Equal(t, "light", u.Theme)
			assert.True(t, u.IsActive)
			assert.Equal(t, "tok-1", u.AccessToken)
			assert.Equal(t, "tok-1", h.token())
		})
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind client.Kind
		wantMsg  string
	}{
		{
			name:     "401 is invalid credentials",
			err:      &client.APIError{Status: http.StatusUnauthorized, Message: "Incorrect email or password"},
			wantKind: client.KindInvalidCredentials,
			wantMsg:  "Incorrect email or password",
		},
		{
			name:     "typed error wins over status",
			err:      &client.APIError{Status: http.StatusBadRequest, Type: "invalid_credentials"},
			wantKind: client.KindInvalidCredentials,
			wantMsg:  client.KindInvalidCredentials.DefaultMessage(),
		},
		{
			name:     "transport failure",
			err:      client.ErrUnavailable,
			wantKind: client.KindNetwork,
			wantMsg:  client.KindNetwork.DefaultMessage(),
		},
		{
			name:     "server error",
			err:      &client.APIError{Status: http.StatusInternalServerError},
			wantKind: client.KindUnknown,
			wantMsg:  client.KindUnknown.DefaultMessage(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.api.LoginErr = tt.err

			err := h.svc.Login(context.Background(), "a@b.com", "X")
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, client.KindOf(err))
			assert.Equal(t, tt.wantMsg, err.Error())

			st := h.state.Snapshot()
			assert.False(t, st.IsAuthenticated)
			assert.False(t, st.IsLoading)
			assert.Equal(t, tt.wantMsg, st.Error)
			assert.Empty(t, h.token())
			assert.Zero(t, h.api.MeCalls)
		})
	}
}

func TestLogin_LocalValidation_NoNetwork(t *testing.T) {
	h := newHarness(t)

	err := h.svc.Login(context.Background(), "nope", "")
	require.Error(t, err)

	var ae *client.AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, client.KindValidation, ae.Kind)
	assert.Contains(t, ae.Fields, "email")
	assert.Contains(t, ae.Fields, "password")
	assert.Zero(t, h.api.LoginCalls)
}

func TestLogin_Timeout_IsNetworkError(t *testing.T) {
	h := newHarness(t)
	h.svc = NewAuthService(AuthDeps{API: h.api, Tokens: h.tokens, State: h.state, Timeout: 20 * time.Millisecond})
	h.api.OnLogin = func(ctx context.Context) { <-ctx.Done() }

	err := h.svc.Login(context.Background(), "a@b.com", "X")
	assert.Equal(t, client.KindNetwork, client.KindOf(err))
	assert.False(t, h.state.IsAuthenticated())
}

func TestLogin_CallerCancellation_IsNetworkError(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.svc.Login(ctx, "a@b.com", "X")
	assert.Equal(t, client.KindNetwork, client.KindOf(err))
}

func TestLogin_SupersededByLogout(t *testing.T) {
	h := newHarness(t)
	h.api.OnLogin = func(ctx context.Context) {
		// a sign-out completes while the login request is in flight
		h.svc.Logout(context.Background())
	}

	err := h.svc.Login(context.Background(), "a@b.com", "X")
	require.Error(t, err)
	assert.Equal(t, client.KindSuperseded, client.KindOf(err))

	st := h.state.Snapshot()
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.CurrentUser)
	assert.Empty(t, st.Error, "superseded results are not shown as errors")
	assert.Empty(t, h.token())
	assert.Zero(t, h.hyd.Calls)
}

func TestLogin_PanicInCollaborator_IsRecovered(t *testing.T) {
	h := newHarness(t)
	h.api.OnLogin = func(ctx context.Context) { panic("transport bug") }

	var err error
	require.NotPanics(t, func() { err = h.svc.Login(context.Background(), "a@b.com", "X") })
	assert.Equal(t, client.KindUnknown, client.KindOf(err))
	assert.False(t, h.state.Snapshot().IsLoading)
}

func TestLogin_HydrationFailure_IsNotPropagated(t *testing.T) {
	for _, hyd := range []*fakeHydrator{{Err: errBoom}, {Panic: true}} {
		h := newHarness(t)
		h.svc = NewAuthService(AuthDeps{API: h.api, Tokens: h.tokens, State: h.state, Hydrator: hyd})

		require.NoError(t, h.svc.Login(context.Background(), "a@b.com", "X"))
		assert.True(t, h.state.IsAuthenticated())
		assert.Equal(t, 1, hyd.Calls)
	}
}

func TestRegister_AutoLoginMatchesLogin(t *testing.T) {
	viaLogin := newHarness(t)
	require.NoError(t, viaLogin.svc.Login(context.Background(), "a@b.com", "Abcdef1!"))

	viaRegister := newHarness(t)
	err := viaRegister.svc.Register(context.Background(), &client.RegisterRequest{
		Email: "a@b.com", Username: "ann", Password: "Abcdef1!", FirstName: "Ann",
	})
	require.NoError(t, err)

	if diff := cmp.Diff(viaLogin.state.Snapshot(), viaRegister.state.Snapshot(), cmpopts.IgnoreFields(store.State{}, "Version")); diff != "" {
		t.Fatalf("register state differs from login state (-login +register):\n%s", diff)
	}
	assert.Equal(t, viaLogin.token(), viaRegister.token())
	assert.Equal(t, client.LoginRequest{Email: "a@b.com", Password: "Abcdef1!"}, viaRegister.api.LastLogin)
	assert.Equal(t, "ann", viaRegister.api.LastRegister.Username)
}

func TestRegister_Failures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind client.Kind
		wantMsg  string
	}{
		{
			name:     "conflict",
			err:      &client.APIError{Status: http.StatusConflict, Message: "Email already registered"},
			wantKind: client.KindUserExists,
			wantMsg:  "Email already registered",
		},
		{
			name:     "400 mentioning existing user",
			err:      &client.APIError{Status: http.StatusBadRequest, Message: "User with this username already exists"},
			wantKind: client.KindUserExists,
			wantMsg:  "User with this username already exists",
		},
		{
			name: "validation details joined",
			err: &client.APIError{Status: http.StatusUnprocessableEntity, Message: "Invalid", Details: []client.FieldDetail{
				{Field: "email", Message: "bad domain"}, {Field: "username", Message: "reserved"},
			}},
			wantKind: client.KindServerValidation,
			wantMsg:  "email: bad domain; username: reserved",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.api.RegisterErr = tt.err

			err := h.svc.Register(context.Background(), &client.RegisterRequest{Email: "a@b.com", Username: "ann", Password: "Abcdef1!"})
			assert.Equal(t, tt.wantKind, client.KindOf(err))
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Zero(t, h.api.LoginCalls)
			assert.False(t, h.state.IsAuthenticated())
			assert.Equal(t, tt.wantMsg, h.state.Snapshot().Error)
		})
	}
}

func TestRegister_LocalValidation(t *testing.T) {
	h := newHarness(t)

	err := h.svc.Register(context.Background(), &client.RegisterRequest{Email: "a@b.com", Username: "a", Password: "abc"})
	var ae *client.AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, client.KindValidation, ae.Kind)
	assert.Len(t, ae.Fields["password"], 4)
	assert.NotEmpty(t, ae.Fields["username"])
	assert.Zero(t, h.api.RegisterCalls)

	err = h.svc.Register(context.Background(), nil)
	assert.Equal(t, client.KindValidation, client.KindOf(err))
}

func TestLogout_ClearsEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.svc.Login(ctx, "a@b.com", "X"))
	h.state.SetDraft(models.Draft{Bio: models.String("draft bio")})
	require.NoError(t, h.prefs.SetMany(ctx, map[string]string{prefs.KeyViewMode: "list", prefs.KeyLanguage: "en"}))

	h.svc.Logout(ctx)

	st := h.state.Snapshot()
	assert.Nil(t, st.CurrentUser)
	assert.False(t, st.IsAuthenticated)
	assert.True(t, st.Draft.IsEmpty())
	assert.Empty(t, h.token())
	m, _ := h.prefs.List(ctx)
	assert.Equal(t, map[string]string{prefs.KeyLanguage: "en"}, m)
}

func TestLogout_SucceedsWhenCleanupFails(t *testing.T) {
	for _, p := range []*memPrefs{{m: map[string]string{}, DelErr: errBoom}, {m: map[string]string{}, DelPanic: true}} {
		h := newHarness(t)
		h.svc = NewAuthService(AuthDeps{API: h.api, Tokens: h.tokens, State: h.state, Prefs: p})
		h.state.SetCurrentUser(&models.UserRecord{ID: "1"})
		h.tokens.SetToken("t")

		require.NotPanics(t, func() { h.svc.Logout(context.Background()) })
		assert.False(t, h.state.IsAuthenticated())
		assert.Empty(t, h.token())
	}
}

func TestLogout_IgnoresCancelledContext(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.svc.Login(context.Background(), "a@b.com", "X"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h.svc.Logout(ctx)
	assert.False(t, h.state.IsAuthenticated())
}

func TestExistenceProbes(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t)
	h.api.CheckEmailRet = true
	assert.True(t, h.svc.CheckEmailExists(ctx, "a@b.com"))

	h.api.CheckEmailErr = client.ErrUnavailable
	assert.False(t, h.svc.CheckEmailExists(ctx, "a@b.com"))

	h.api.CheckEmailErr = nil
	h.api.ProbePanic = true
	assert.False(t, h.svc.CheckEmailExists(ctx, "a@b.com"))

	calls := h.api.CheckEmailCalls
	assert.False(t, h.svc.CheckEmailExists(ctx, "not-an-email"))
	assert.Equal(t, calls, h.api.CheckEmailCalls)

	h.api.CheckUsernameRet = true
	assert.True(t, h.svc.CheckUsernameExists(ctx, " ann "))
	assert.Equal(t, "ann", h.api.LastCheckUsername)
	h.api.CheckUsernameErr = &client.APIError{Status: http.StatusInternalServerError}
	assert.False(t, h.svc.CheckUsernameExists(ctx, "ann"))
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing stored", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.svc.Restore(ctx))
		assert.False(t, h.state.IsAuthenticated())
		assert.Zero(t, h.api.MeCalls)
	})

	t.Run("valid token", func(t *testing.T) {
		h := newHarness(t)
		tok := signedToken(t, fixedNow.Add(time.Hour))
		require.NoError(t, h.prefs.Set(ctx, prefs.KeyAuthToken, tok))

		require.NoError(t, h.svc.Restore(ctx))
		assert.True(t, h.state.IsAuthenticated())
		assert.Equal(t, tok, h.token())
		assert.Equal(t, tok, h.api.LastMeToken)
		assert.Equal(t, 1, h.hyd.Calls)
	})

	t.Run("expired locally", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.prefs.Set(ctx, prefs.KeyAuthToken, signedToken(t, fixedNow.Add(-time.Minute))))

		err := h.svc.Restore(ctx)
		assert.Equal(t, client.KindSessionExpired, client.KindOf(err))
		assert.Zero(t, h.api.MeCalls)
		_, ok, _ := h.prefs.Get(ctx, prefs.KeyAuthToken)
		assert.False(t, ok)
	})

	t.Run("rejected by server", func(t *testing.T) {
		h := newHarness(t)
		h.api.MeErr = &client.APIError{Status: http.StatusUnauthorized, Message: "Not authenticated"}
		require.NoError(t, h.prefs.Set(ctx, prefs.KeyAuthToken, "opaque"))

		err := h.svc.Restore(ctx)
		assert.Equal(t, client.KindSessionExpired, client.KindOf(err))
		assert.Equal(t, client.KindSessionExpired.DefaultMessage(), err.Error())
		assert.False(t, h.state.IsAuthenticated())
		assert.Empty(t, h.token())
		_, ok, _ := h.prefs.Get(ctx, prefs.KeyAuthToken)
		assert.False(t, ok)
	})

	t.Run("server unreachable keeps token", func(t *testing.T) {
		h := newHarness(t)
		h.api.MeErr = client.ErrUnavailable
		require.NoError(t, h.prefs.Set(ctx, prefs.KeyAuthToken, "opaque"))

		err := h.svc.Restore(ctx)
		assert.Equal(t, client.KindNetwork, client.KindOf(err))
		_, ok, _ := h.prefs.Get(ctx, prefs.KeyAuthToken)
		assert.True(t, ok)
	})
}

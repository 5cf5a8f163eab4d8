package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "42", ExpiresAt: jwt.NewNumericDate(exp)}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func TestStore_SetReplaceClear(t *testing.T) {
	s := NewStore()

	_, ok := s.Token()
	require.False(t, ok)

	s.SetToken("first")
	s.SetToken("second")
	tok, ok := s.Token()
	require.True(t, ok)
	assert.Equal(t, "second", tok)

	s.ClearToken()
	tok, ok = s.Token()
	assert.False(t, ok)
	assert.Empty(t, tok)
}

func TestStore_EmptyTokenClears(t *testing.T) {
	var s Store
	s.SetToken("abc")
	s.SetToken("")
	_, ok := s.Token()
	assert.False(t, ok)
}

func TestStore_ExpiryFromJWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	s := NewStore()
	s.SetToken(signed(t, exp))

	got, ok := s.ExpiresAt()
	require.True(t, ok)
	assert.True(t, got.Equal(exp))
	assert.False(t, s.Expired(time.Now()))
	assert.True(t, s.Expired(exp.Add(time.Second)))
}

func TestStore_OpaqueTokenNeverExpires(t *testing.T) {
	s := NewStore()
	s.SetToken("opaque-token")

	_, ok := s.ExpiresAt()
	assert.False(t, ok)
	assert.False(t, s.Expired(time.Now().Add(100*365*24*time.Hour)))
}

func TestParseExpiry_NoExpClaim(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, ok := ParseExpiry(tok)
	assert.False(t, ok)
}

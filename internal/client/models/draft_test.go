package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftMerge_KeepsFieldsMissingFromNext(t *testing.T) {
	d := Draft{Email: String("a@b.com"), FirstName: String("Ann")}
	got := d.Merge(Draft{LastName: String("Lee"), FirstName: String("Anna")})

	assert.Equal(t, "a@b.com", Deref(got.Email))
	assert.Equal(t, "Anna", Deref(got.FirstName))
	assert.Equal(t, "Lee", Deref(got.LastName))

	// the receiver is left untouched
	assert.Equal(t, "Ann", Deref(d.FirstName))
	assert.Nil(t, d.LastName)
}

func TestDraftMerge_SocialLinksPerKey(t *testing.T) {
	d := Draft{SocialLinks: map[string]string{"github": "gh/a"}}
	got := d.Merge(Draft{SocialLinks: map[string]string{"x": "x/a"}})

	assert.Equal(t, map[string]string{"github": "gh/a", "x": "x/a"}, got.SocialLinks)
	assert.Len(t, d.SocialLinks, 1)
}

func TestDraftClone_Independent(t *testing.T) {
	d := Draft{Bio: String("hi"), Avatar: &Upload{FileName: "a.png"}}
	c := d.Clone()
	*c.Bio = "changed"
	c.Avatar.FileName = "b.png"

	assert.Equal(t, "hi", *d.Bio)
	assert.Equal(t, "a.png", d.Avatar.FileName)
}

func TestDraftIsEmptyAndProfile(t *testing.T) {
	assert.True(t, Draft{}.IsEmpty())
	assert.False(t, Draft{Password: String("x")}.IsEmpty())
	assert.False(t, Draft{ShowEmail: Bool(false)}.IsEmpty())

	d := Draft{
		Email:    String("a@b.com"),
		Password: String("secret"),
		Avatar:   &Upload{FileName: "a.png"},
		Bio:      String("bio"),
	}
	p := d.Profile()
	assert.Nil(t, p.Email)
	assert.Nil(t, p.Password)
	assert.Nil(t, p.Avatar)
	assert.Equal(t, "bio", Deref(p.Bio))
	assert.True(t, Draft{Email: String("x")}.Profile().IsEmpty())
}

func TestDraftApplyTo(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	u := &UserRecord{ID: "1", Email: "a@b.com", Username: "ann", Theme: "light", EmailNotifications: true}

	Draft{
		Email:              String("other@b.com"),
		Theme:              String("dark"),
		EmailNotifications: Bool(false),
		Bio:                String("hello"),
	}.ApplyTo(u, now)

	assert.Equal(t, "a@b.com", u.Email, "email is immutable once set")
	assert.Equal(t, "dark", u.Theme)
	assert.False(t, u.EmailNotifications)
	assert.Equal(t, "hello", u.Bio)
	assert.Equal(t, now, u.UpdatedAt)
}

func TestUserID_Unmarshal(t *testing.T) {
	var u UserRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id": 42, "email": "a@b.com"}`), &u))
	assert.Equal(t, UserID("42"), u.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id": "abc"}`), &u))
	assert.Equal(t, UserID("abc"), u.ID)

	require.Error(t, json.Unmarshal([]byte(`{"id": 1.5}`), &u))
}

func TestUserRecordClone(t *testing.T) {
	ts := time.Now()
	u := &UserRecord{ID: "1", SocialLinks: map[string]string{"a": "b"}, TeamIDs: []string{"t"}, LastLogin: &ts}
	c := u.Clone()
	c.SocialLinks["a"] = "z"
	c.TeamIDs[0] = "x"

	assert.Equal(t, "b", u.SocialLinks["a"])
	assert.Equal(t, "t", u.TeamIDs[0])
	assert.NotSame(t, u.LastLogin, c.LastLogin)
	assert.Nil(t, (*UserRecord)(nil).Clone())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ann Lee", (&UserRecord{FirstName: "Ann", LastName: "Lee"}).DisplayName())
	assert.Equal(t, "Ann", (&UserRecord{FirstName: "Ann", Username: "ann"}).DisplayName())
	assert.Equal(t, "ann", (&UserRecord{Username: "ann"}).DisplayName())
}

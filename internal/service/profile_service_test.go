//go:build unit

package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"go-blog-app/internal/data"
	"go-blog-app/internal/form"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileForm(email string) *form.Profile {
	return form.NewProfile(url.Values{
		"first_name": {"Ann"},
		"last_name":  {"Baker"},
		"email":      {email},
		"birth_date": {"1990-02-03"},
		"job":        {"Baker"},
	})
}

func newProfileFixture() (*ProfileService, *fakeUsers, *fakeProfiles, *fakeMedia) {
	users := newFakeUsers()
	profiles := newFakeProfiles(users)
	store := &fakeMedia{}
	svc := NewProfileService(profiles, users, store, logger.Nop())
	svc.now = fixedClock
	return svc, users, profiles, store
}

func TestProfileService_Create(t *testing.T) {
	svc, users, _, store := newProfileFixture()
	ctx := context.Background()
	u := users.add(data.User{Username: "ann", Email: "ann@old.example"})
	users.add(data.User{Username: "taken", Email: "taken@example.com"})

	_, err := svc.Create(ctx, u.ID, profileForm("taken@example.com"), nil)
	require.Error(t, err)
	assert.Equal(t, MsgEmailTaken, FieldErrors(err).Get("email"))

	p, err := svc.Create(ctx, u.ID, profileForm("ann@example.com"), strings.NewReader("png"))
	require.NoError(t, err)
	require.NotNil(t, p.ProfilePicture)
	assert.Equal(t, store.saved[0], *p.ProfilePicture)
	assert.Equal(t, 34, p.Age(testNow))

	stored, _ := users.GetUserByID(ctx, u.ID)
	assert.Equal(t, "ann@example.com", stored.Email, "the form also updates the account")
	assert.Equal(t, "Ann", stored.FirstName)

	has, err := svc.HasProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, has)

	_, err = svc.Create(ctx, u.ID, profileForm("ann@example.com"), nil)
	require.Error(t, err)
	assert.Equal(t, CodeConflict, ErrorCode(err))
	assert.Equal(t, MsgProfileExists, ErrorMessage(err))
}

func TestProfileService_FailedWriteLeavesNothingBehind(t *testing.T) {
	svc, users, profiles, store := newProfileFixture()
	ctx := context.Background()
	u := users.add(data.User{Username: "ann", Email: "ann@old.example"})
	profiles.writeErr = errors.New("disk I/O error")

	_, err := svc.Create(ctx, u.ID, profileForm("ann@example.com"), strings.NewReader("png"))
	require.Error(t, err)
	assert.Equal(t, CodeInternal, ErrorCode(err))

	stored, _ := users.GetUserByID(ctx, u.ID)
	assert.Equal(t, "ann@old.example", stored.Email, "the account is saved with the profile or not at all")
	assert.Empty(t, stored.FirstName)
	require.Len(t, store.saved, 1)
	assert.Equal(t, store.saved, store.deleted, "the uploaded picture is removed")

	profiles.writeErr = nil
	_, err = svc.Create(ctx, u.ID, profileForm("ann@example.com"), nil)
	require.NoError(t, err)

	profiles.writeErr = errors.New("disk I/O error")
	_, err = svc.Update(ctx, u.ID, "ann", profileForm("ann@example.com"), strings.NewReader("png"))
	require.Error(t, err)
	require.Len(t, store.saved, 2)
	assert.Equal(t, store.saved, store.deleted)
}

func TestProfileService_Update(t *testing.T) {
	svc, users, _, store := newProfileFixture()
	ctx := context.Background()
	owner := users.add(data.User{Username: "ann", Email: "ann@example.com"})
	other := users.add(data.User{Username: "bob", Email: "bob@example.com"})

	_, err := svc.Create(ctx, owner.ID, profileForm("ann@example.com"), strings.NewReader("one"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, other.ID, "ann", profileForm("ann@example.com"), nil)
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, ErrorCode(err))
	assert.Equal(t, MsgProfileForbidden, ErrorMessage(err))

	_, err = svc.Update(ctx, owner.ID, "ghost", profileForm("ann@example.com"), nil)
	assert.Equal(t, CodeNotFound, ErrorCode(err))

	f := profileForm("ann@example.com")
	f.Bio = "Bakes bread."
	p, err := svc.Update(ctx, owner.ID, "ann", f, strings.NewReader("two"))
	require.NoError(t, err)
	require.NotNil(t, p.Bio)
	assert.Equal(t, "Bakes bread.", *p.Bio)
	assert.Equal(t, []string{store.saved[0]}, store.deleted, "the replaced picture is removed")

	future := profileForm("ann@example.com")
	future.BirthDate = "2090-01-01"
	_, err = svc.Update(ctx, owner.ID, "ann", future, nil)
	assert.NotEmpty(t, FieldErrors(err).Get("birth_date"))
}

func TestProfileService_UploadTooLarge(t *testing.T) {
	svc, users, profiles, store := newProfileFixture()
	u := users.add(data.User{Username: "ann", Email: "ann@example.com"})
	store.err = media.ErrTooLarge

	_, err := svc.Create(context.Background(), u.ID, profileForm("ann@example.com"), strings.NewReader("huge"))
	require.Error(t, err)
	assert.Equal(t, MsgUploadTooLarge, FieldErrors(err).Get("profile_picture"))
	assert.Empty(t, profiles.byUser)
}

func TestProfileService_Get(t *testing.T) {
	svc, users, _, _ := newProfileFixture()
	users.add(data.User{Username: "ann"})

	_, err := svc.Get(context.Background(), "ann")
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, ErrorCode(err))
	assert.Equal(t, MsgProfileMissing, ErrorMessage(err))
}

package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/inhahackathon/foodmarket/internal/apperr"
	"github.com/inhahackathon/foodmarket/internal/auth"
	"github.com/inhahackathon/foodmarket/internal/geo"
	"github.com/inhahackathon/foodmarket/internal/store/memstore"
	"github.com/inhahackathon/foodmarket/internal/upload"
	"github.com/inhahackathon/foodmarket/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	store    *memstore.Store
	identity *mockIdentity
	geocoder *mockGeocoder
	files    *mockFiles
	events   *recordingEvents
	tokens   *auth.TokenProvider
	svc      *UserService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	tokens, err := auth.NewTokenProvider("test-secret")
	require.NoError(t, err)

	f := &userFixture{
		store: memstore.New(),
		identity: &mockIdentity{users: map[string]types.ProviderUser{
			"uid-1": {UID: "uid-1", ProviderID: "google.com", Email: "kim@example.com", Name: "Kim", PhotoURL: "https://img/kim.png"},
			"uid-2": {UID: "uid-2", ProviderID: "google.com", Email: "lee@example.com", Name: "Lee"},
		}},
		geocoder: &mockGeocoder{},
		files: &mockFiles{saveFile: func(ctx context.Context, boardID *int64, file upload.File) (string, error) {
			return upload.Dir(boardID) + "/saved.png", nil
		}},
		events: &recordingEvents{},
		tokens: tokens,
	}
	f.svc = NewUserService(f.store, f.identity, tokens, f.geocoder, f.files, WithEvents(f.events))
	return f
}

func (f *userFixture) register(t *testing.T, uid string) types.User {
	t.Helper()
	user, err := f.svc.SaveUserFromFirebase(t.Context(), uid)
	require.NoError(t, err)
	return user
}

func TestSaveUserFromFirebaseCreatesUser(t *testing.T) {
	f := newUserFixture(t)

	user := f.register(t, "uid-1")
	assert.NotZero(t, user.ID)
	assert.Equal(t, "uid-1", user.UID)
	assert.Equal(t, "Kim", user.Name)
	assert.Equal(t, "https://img/kim.png", user.ProfileImgURL)
	assert.Equal(t, types.RoleUser, user.Role)
	assert.Equal(t, types.OAuthProviderGoogle, user.Provider)

	users, oauthUsers, infoSets, _, _ := f.store.Counts()
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, oauthUsers)
	assert.Equal(t, 1, infoSets)
}

func TestSaveUserFromFirebaseIsIdempotent(t *testing.T) {
	f := newUserFixture(t)

	first := f.register(t, "uid-1")
	second := f.register(t, "uid-1")
	assert.Equal(t, first, second)

	users, oauthUsers, infoSets, _, _ := f.store.Counts()
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, oauthUsers)
	assert.Equal(t, 1, infoSets)
}

func TestSaveUserFromFirebaseUnknownUID(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.SaveUserFromFirebase(t.Context(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	users, _, _, _, _ := f.store.Counts()
	assert.Zero(t, users)
}

func TestSaveUserFromFirebaseProviderFailure(t *testing.T) {
	f := newUserFixture(t)
	f.identity.err = errors.New("firebase unavailable")

	_, err := f.svc.SaveUserFromFirebase(t.Context(), "uid-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
}

func TestSaveUserFromFirebaseIsAtomic(t *testing.T) {
	f := newUserFixture(t)
	f.store.FailOn["CreateOAuthUser"] = errors.New("insert failed")

	_, err := f.svc.SaveUserFromFirebase(t.Context(), "uid-1")
	require.Error(t, err)

	users, oauthUsers, infoSets, _, _ := f.store.Counts()
	assert.Zero(t, users)
	assert.Zero(t, oauthUsers)
	assert.Zero(t, infoSets)
}

func TestGetUser(t *testing.T) {
	f := newUserFixture(t)
	user := f.register(t, "uid-1")

	dto, err := f.svc.GetUser(t.Context(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, types.UserDTO{UserID: user.ID, Name: "Kim", ProfileImgURL: "https://img/kim.png"}, dto)

	_, err = f.svc.GetUser(t.Context(), user.ID+100)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateUser(t *testing.T) {
	f := newUserFixture(t)
	user := f.register(t, "uid-1")

	dto, err := f.svc.UpdateUser(t.Context(), types.UserDTO{
		UserID:        user.ID,
		Name:          "  Kim Minsu ",
		Location:      " 용현동 ",
		ProfileImgURL: "/profile/new.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Kim Minsu", dto.Name)
	assert.Equal(t, "용현동", dto.Location)
	assert.Equal(t, "/profile/new.png", dto.ProfileImgURL)
}

func TestUpdateUserBlankNameIsRejected(t *testing.T) {
	f := newUserFixture(t)
	user := f.register(t, "uid-1")

	for _, name := range []string{"", " ", "\t\n "} {
		_, err := f.svc.UpdateUser(t.Context(), types.UserDTO{UserID: user.ID, Name: name, Location: "학익동"})
		assert.ErrorIs(t, err, apperr.ErrNotAllowedValue)
	}

	stored, err := f.svc.GetUser(t.Context(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kim", stored.Name)
	assert.Empty(t, stored.Location)
}

func TestUpdateUserKeepsOptionalFields(t *testing.T) {
	f := newUserFixture(t)
	user := f.register(t, "uid-1")
	_, err := f.svc.UpdateUser(t.Context(), types.UserDTO{UserID: user.ID, Name: "Kim", Location: "용현동"})
	require.NoError(t, err)

	dto, err := f.svc.UpdateUser(t.Context(), types.UserDTO{UserID: user.ID, Name: "Kim", Location: "  ", ProfileImgURL: ""})
	require.NoError(t, err)
	assert.Equal(t, "용현동", dto.Location)
	assert.Equal(t, "https://img/kim.png", dto.ProfileImgURL)
}

func TestUpdateUserMissing(t *testing.T) {
	f := newUserFixture(t)

	_, err := f.svc.UpdateUser(t.Context(), types.UserDTO{UserID: 99, Name: "Kim"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteUserRemovesBoards(t *testing.T) {
	f := newUserFixture(t)
	writer := f.register(t, "uid-1")
	other := f.register(t, "uid-2")

	first, err := f.store.CreateBoard(t.Context(), types.Board{UserID: writer.ID, ProductName: "milk"})
	require.NoError(t, err)
	second, err := f.store.CreateBoard(t.Context(), types.Board{UserID: writer.ID, ProductName: "eggs"})
	require.NoError(t, err)
	kept, err := f.store.CreateBoard(t.Context(), types.Board{UserID: other.ID, ProductName: "rice"})
	require.NoError(t, err)
	_, err = f.store.CreateLike(t.Context(), other.ID, first.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteUser(t.Context(), writer.ID))

	_, err = f.svc.GetUser(t.Context(), writer.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.store.GetBoard(t.Context(), first.ID)
	assert.Error(t, err)
	_, err = f.store.GetBoard(t.Context(), kept.ID)
	assert.NoError(t, err)

	_, _, _, boards, likes := f.store.Counts()
	assert.Equal(t, 1, boards)
	assert.Zero(t, likes)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, types.BoardsDeletedEvent{UserID: writer.ID, BoardIDs: []int64{first.ID, second.ID}}, f.events.events[0])
}

func TestDeleteUserMissing(t *testing.T) {
	f := newUserFixture(t)

	assert.ErrorIs(t, f.svc.DeleteUser(t.Context(), 42), apperr.ErrNotFound)
	assert.Empty(t, f.events.events)
}

func TestDeleteUserWithoutBoardsPublishesNothing(t *testing.T) {
	f := newUserFixture(t)
	user := f.register(t, "uid-1")

	require.NoError(t, f.svc.DeleteUser(t.Context(), user.ID))
	assert.Empty(t, f.events.events)
}

func TestDeleteUserSurvivesPublishFailure(t *testing.T) {
	f := newUserFixture(t)
	user := f.register(t, "uid-1")
	_, err := f.store.CreateBoard(t.Context(), types.Board{UserID: user.ID})
	require.NoError(t, err)
	f.events.err = errors.New("broker down")

	assert.NoError(t, f.svc.DeleteUser(t.Context(), user.ID))
}

func TestGetUserToken(t *testing.T) {
	f := newUserFixture(t)
	now := time.Now().Truncate(time.Second)
	f.svc = NewUserService(f.store, f.identity, f.tokens, f.geocoder, f.files, WithClock(func() time.Time { return now }))
	user := f.register(t, "uid-1")

	token, err := f.svc.GetUserToken(user)
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), token.ExpiresAt)

	principal, err := f.tokens.ParseToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.NewPrincipal(user), principal)
}

func TestUpdateUserLocation(t *testing.T) {
	f := newUserFixture(t)
	user := f.register(t, "uid-1")
	f.geocoder.address = "인천 미추홀구 용현동 253"

	location, err := f.svc.UpdateUserLocation(t.Context(), user.ID, 37.45, 126.65)
	require.NoError(t, err)
	assert.Equal(t, "용현동", location)

	dto, err := f.svc.GetUser(t.Context(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "용현동", dto.Location)
}

func TestUpdateUserLocationWithoutDistrict(t *testing.T) {
	f := newUserFixture(t)
	user := f.register(t, "uid-1")
	_, err := f.svc.UpdateUser(t.Context(), types.UserDTO{UserID: user.ID, Name: "Kim", Location: "학익동"})
	require.NoError(t, err)
	f.geocoder.address = "인천 미추홀구 인하로 100"

	_, err = f.svc.UpdateUserLocation(t.Context(), user.ID, 37.45, 126.65)
	assert.ErrorIs(t, err, apperr.ErrSearchResultNotExist)

	dto, err := f.svc.GetUser(t.Context(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "학익동", dto.Location)
}

func TestUpdateUserLocationNoAddress(t *testing.T) {
	f := newUserFixture(t)
	user := f.register(t, "uid-1")
	f.geocoder.err = geo.ErrAddressNotFound

	_, err := f.svc.UpdateUserLocation(t.Context(), user.ID, 0, 0)
	assert.ErrorIs(t, err, apperr.ErrSearchResultNotExist)
}

func TestUpdateProfileImage(t *testing.T) {
	f := newUserFixture(t)
	user := f.register(t, "uid-1")

	var gotBoardID *int64
	f.files.saveFile = func(ctx context.Context, boardID *int64, file upload.File) (string, error) {
		gotBoardID = boardID
		return "/profile/1_abc.png", nil
	}

	p, err := f.svc.UpdateProfileImage(t.Context(), user.ID, upload.File{Filename: "me.png", Content: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Equal(t, "/profile/1_abc.png", p)
	assert.Nil(t, gotBoardID)

	dto, err := f.svc.GetUser(t.Context(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "/profile/1_abc.png", dto.ProfileImgURL)
}

func TestUpdateProfileImageUploadFailure(t *testing.T) {
	f := newUserFixture(t)
	user := f.register(t, "uid-1")
	f.files.saveFile = func(ctx context.Context, boardID *int64, file upload.File) (string, error) {
		return "", apperr.New(apperr.ErrFileUploadFailed, "not allowed extension")
	}

	_, err := f.svc.UpdateProfileImage(t.Context(), user.ID, upload.File{Filename: "me.exe"})
	assert.ErrorIs(t, err, apperr.ErrFileUploadFailed)

	dto, err := f.svc.GetUser(t.Context(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://img/kim.png", dto.ProfileImgURL)
}

package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"store_backend/internal/filestore"
	"store_backend/internal/model"
	"store_backend/internal/repository"
	"store_backend/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTUtil() *utils.JWTUtil {
	return utils.NewJWTUtil("0123456789abcdef0123456789abcdef", 24)
}

// in-memory UserRepository for service tests
type fakeUserRepo struct {
	users     map[int64]*model.User
	nextID    int64
	createErr error
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	user.ID = r.nextID
	user.NormalizedUsername = model.NormalizeUsername(user.Username)
	r.nextID++
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	normalized := model.NormalizeUsername(username)
	for _, u := range r.users {
		if u.NormalizedUsername == normalized {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.users[user.ID]; !ok {
		return errors.New("user not found for update")
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return errors.New("user not found for deletion")
	}
	delete(r.users, id)
	return nil
}

func makePhotoHeader(t *testing.T, fileName string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("photo", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["photo"][0]
}

func registerRequest(username string) model.RegisterRequest {
	return model.RegisterRequest{
		Username: username,
		Password: "pw1234",
		Phone:    "555",
		Email:    "a@x.com",
	}
}

func newAuthServiceForTest(t *testing.T) (AuthService, *fakeUserRepo, *filestore.FileStore) {
	t.Helper()
	repo := newFakeUserRepo()
	files := filestore.New(t.TempDir())
	return NewAuthService(repo, testJWTUtil(), files), repo, files
}

func TestAuthService_Register_ThenLogin(t *testing.T) {
	svc, repo, files := newAuthServiceForTest(t)

	user, token, err := svc.Register(context.Background(), registerRequest("alice"), makePhotoHeader(t, "me.jpg", []byte("pic")))

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.True(t, files.Exists(user.ProfilePicture), "profile photo must be stored on disk")
	assert.Len(t, repo.users, 1)

	// A subsequent login with the same credentials must succeed
	loggedIn, loginToken, err := svc.Login(context.Background(), "alice", "pw1234")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, loginToken)
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	svc, _, _ := newAuthServiceForTest(t)

	_, _, err := svc.Register(context.Background(), registerRequest("alice"), makePhotoHeader(t, "a.jpg", []byte("a")))
	require.NoError(t, err)

	// Duplicate check is case-insensitive
	_, token, err := svc.Register(context.Background(), registerRequest("ALICE"), makePhotoHeader(t, "b.jpg", []byte("b")))
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Empty(t, token)
}

func TestAuthService_Register_DuplicateInsertRace(t *testing.T) {
	// A concurrent registration can slip past the lookup and fail only at the
	// unique index; that still has to surface as the taken-username error.
	repo := newFakeUserRepo()
	repo.createErr = repository.ErrDuplicateUsername
	files := filestore.New(t.TempDir())
	svc := NewAuthService(repo, testJWTUtil(), files)

	_, token, err := svc.Register(context.Background(), registerRequest("alice"), makePhotoHeader(t, "me.jpg", []byte("pic")))

	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Empty(t, token)
	entries, _ := os.ReadDir(filepath.Join(files.BaseDir(), filestore.ProfilePicturesDir))
	assert.Empty(t, entries, "no stray photo may remain")
}

func TestAuthService_Register_RepoFailureCleansUpPhoto(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = errors.New("db down")
	files := filestore.New(t.TempDir())
	svc := NewAuthService(repo, testJWTUtil(), files)

	_, _, err := svc.Register(context.Background(), registerRequest("alice"), makePhotoHeader(t, "me.jpg", []byte("pic")))

	assert.Error(t, err)
	assert.Empty(t, repo.users)
	entries, _ := os.ReadDir(filepath.Join(files.BaseDir(), filestore.ProfilePicturesDir))
	assert.Empty(t, entries, "no stray photo may remain")
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, _, _ := newAuthServiceForTest(t)
	_, _, err := svc.Register(context.Background(), registerRequest("alice"), makePhotoHeader(t, "a.jpg", []byte("a")))
	require.NoError(t, err)

	user, token, err := svc.Login(context.Background(), "alice", "wrong")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, user)
	assert.Empty(t, token, "no token may be issued on credential mismatch")
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	svc, _, _ := newAuthServiceForTest(t)

	_, token, err := svc.Login(context.Background(), "ghost", "pw1234")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, token)
}

func TestAuthService_EditProfile_NoFields(t *testing.T) {
	svc, _, _ := newAuthServiceForTest(t)
	user, _, err := svc.Register(context.Background(), registerRequest("alice"), makePhotoHeader(t, "a.jpg", []byte("a")))
	require.NoError(t, err)

	_, err = svc.EditProfile(context.Background(), user.ID, model.EditProfileRequest{}, nil)
	assert.ErrorIs(t, err, ErrNoChanges)
}

func TestAuthService_EditProfile_PhoneOnly(t *testing.T) {
	svc, repo, _ := newAuthServiceForTest(t)
	user, _, err := svc.Register(context.Background(), registerRequest("alice"), makePhotoHeader(t, "a.jpg", []byte("a")))
	require.NoError(t, err)

	newPhone := "777"
	updated, err := svc.EditProfile(context.Background(), user.ID, model.EditProfileRequest{Phone: &newPhone}, nil)

	require.NoError(t, err)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "777", *updated.Phone)
	// Untouched fields keep their values
	require.NotNil(t, updated.Email)
	assert.Equal(t, "a@x.com", *updated.Email)
	assert.Equal(t, user.ProfilePicture, repo.users[user.ID].ProfilePicture)
}

func TestAuthService_EditProfile_PasswordChange(t *testing.T) {
	svc, _, _ := newAuthServiceForTest(t)
	user, _, err := svc.Register(context.Background(), registerRequest("alice"), makePhotoHeader(t, "a.jpg", []byte("a")))
	require.NoError(t, err)

	oldPw, newPw := "pw1234", "newpw1"

	// Wrong old password is rejected
	wrong := "nope99"
	_, err = svc.EditProfile(context.Background(), user.ID, model.EditProfileRequest{OldPassword: &wrong, NewPassword: &newPw}, nil)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// New password without the old one is rejected
	_, err = svc.EditProfile(context.Background(), user.ID, model.EditProfileRequest{NewPassword: &newPw}, nil)
	assert.ErrorIs(t, err, ErrOldPasswordRequired)

	// Correct old password applies the change
	_, err = svc.EditProfile(context.Background(), user.ID, model.EditProfileRequest{OldPassword: &oldPw, NewPassword: &newPw}, nil)
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "alice", "newpw1")
	assert.NoError(t, err)
	_, _, err = svc.Login(context.Background(), "alice", "pw1234")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_EditProfile_PhotoReplacementDeletesOldFile(t *testing.T) {
	svc, _, files := newAuthServiceForTest(t)
	user, _, err := svc.Register(context.Background(), registerRequest("alice"), makePhotoHeader(t, "old.jpg", []byte("old")))
	require.NoError(t, err)
	oldPath := user.ProfilePicture

	updated, err := svc.EditProfile(context.Background(), user.ID, model.EditProfileRequest{}, makePhotoHeader(t, "new.png", []byte("new")))

	require.NoError(t, err)
	assert.NotEqual(t, oldPath, updated.ProfilePicture)
	assert.True(t, files.Exists(updated.ProfilePicture))
	assert.False(t, files.Exists(oldPath), "replaced photo must be removed from disk")
}

func TestAuthService_DeleteAccount(t *testing.T) {
	svc, repo, files := newAuthServiceForTest(t)
	user, _, err := svc.Register(context.Background(), registerRequest("alice"), makePhotoHeader(t, "a.jpg", []byte("a")))
	require.NoError(t, err)

	err = svc.DeleteAccount(context.Background(), user.ID)

	require.NoError(t, err)
	assert.Empty(t, repo.users)
	assert.False(t, files.Exists(user.ProfilePicture), "profile photo must be removed with the account")

	assert.ErrorIs(t, svc.DeleteAccount(context.Background(), user.ID), ErrUserNotFound)
}

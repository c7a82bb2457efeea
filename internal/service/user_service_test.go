package service

import (
	"bytes"
	"context"
	"errors"
	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/util"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfileUniqueness(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	svc := NewUserService(userRepo, nil)

	alice := seedStudent(t, userRepo, "alice", true)
	seedStudent(t, userRepo, "bob", true)

	_, err := svc.UpdateProfile(alice.ID, "bob", "")
	assert.ErrorIs(t, err, util.ErrUsernameTaken)

	_, err = svc.UpdateProfile(alice.ID, "", "bob@example.com")
	assert.ErrorIs(t, err, util.ErrEmailRegistered)

	updated, err := svc.UpdateProfile(alice.ID, "alice2", "Alice2@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	assert.Equal(t, "alice2@example.com", updated.Email)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	svc := NewUserService(userRepo, nil)

	_, err := svc.UpdateProfile(999, "ghost", "")
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestUpdateProfileNoopKeepsValues(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	svc := NewUserService(userRepo, nil)

	alice := seedStudent(t, userRepo, "alice", true)

	updated, err := svc.UpdateProfile(alice.ID, "alice", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.Username)
	assert.Equal(t, "alice@example.com", updated.Email)
}

func avatarFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["file"][0]
}

func TestUploadAvatarStoresFileAndUpdatesUser(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)

	dir := t.TempDir()
	storage := &StorageService{Provider: &LocalStorageProvider{
		Config: &config.StorageConfig{Type: "local", LocalPath: dir},
	}}
	svc := NewUserService(userRepo, storage)

	alice := seedStudent(t, userRepo, "alice", true)
	alice.ExternalID = "ext-alice"
	require.NoError(t, userRepo.Update(alice))

	url, err := svc.UploadAvatar(context.Background(), alice, avatarFileHeader(t, "me.png", []byte("fake-png")))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/ext-alice/profile.png", url)

	written, err := os.ReadFile(filepath.Join(dir, "ext-alice", "profile.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png"), written)

	stored, err := userRepo.FindByID(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, url, stored.ProfilePic)
}

// brokenStorageProvider 所有上传都失败
type brokenStorageProvider struct{}

func (p *brokenStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	return "", errors.New("bucket unavailable")
}

func (p *brokenStorageProvider) Delete(ctx context.Context, filename string) error { return nil }

func (p *brokenStorageProvider) GetURL(filename string) string { return "" }

func TestUploadAvatarFailureKeepsPreviousPicture(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)

	svc := NewUserService(userRepo, &StorageService{Provider: &brokenStorageProvider{}})

	alice := seedStudent(t, userRepo, "alice", true)
	alice.ExternalID = "ext-alice"
	require.NoError(t, userRepo.Update(alice))
	require.NoError(t, userRepo.UpdateProfilePic(alice.ID, "/uploads/ext-alice/profile.old.png"))

	_, err := svc.UploadAvatar(context.Background(), alice, avatarFileHeader(t, "me.png", []byte("fake-png")))
	assert.ErrorIs(t, err, util.ErrUploadFailed)

	stored, err := userRepo.FindByID(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/ext-alice/profile.old.png", stored.ProfilePic)
}

func TestUploadAvatarDefaultsExtension(t *testing.T) {
	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)

	storage := &StorageService{Provider: &LocalStorageProvider{
		Config: &config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
	}}
	svc := NewUserService(userRepo, storage)

	alice := seedStudent(t, userRepo, "alice", true)
	alice.ExternalID = "ext-alice"
	require.NoError(t, userRepo.Update(alice))

	url, err := svc.UploadAvatar(context.Background(), alice, avatarFileHeader(t, "noext", []byte("data")))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/ext-alice/profile.jpg", url)
}

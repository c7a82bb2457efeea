package service

import (
	"context"
	"errors"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/logger"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserService struct {
	UserRepo *repository.UserRepository
	Storage  *StorageService
}

func NewUserService(userRepo *repository.UserRepository, storage *StorageService) *UserService {
	return &UserService{
		UserRepo: userRepo,
		Storage:  storage,
	}
}

func (s *UserService) GetUserByID(id uint) (*model.User, error) {
	return s.UserRepo.FindByID(id)
}

// UpdateProfile 用户自助修改用户名/邮箱，唯一性冲突明确报错
func (s *UserService) UpdateProfile(userID uint, username, email string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	} else if err != nil {
		return nil, err
	}

	if username != "" && username != user.Username {
		if other, err := s.UserRepo.FindByUsername(username); err == nil && other.ID != user.ID {
			return nil, util.ErrUsernameTaken
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Username = username
	}

	if email != "" {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != user.Email {
			if other, err := s.UserRepo.FindByEmail(email); err == nil && other.ID != user.ID {
				return nil, util.ErrEmailRegistered
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			user.Email = email
		}
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// UploadAvatar 头像上传到对象存储。路径固定为 {external_id}/profile.{ext}，
// 重传覆盖旧图，URL 稳定。上传失败时保留原头像。
func (s *UserService) UploadAvatar(ctx context.Context, user *model.User, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Filename), "."))
	if ext == "" {
		ext = "jpg"
	}

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	src, err := file.Open()
	if err != nil {
		return "", util.ErrUploadFailed
	}
	defer src.Close()

	objectName := fmt.Sprintf("%s/profile.%s", user.ExternalID, ext)
	url, err := s.Storage.Upload(ctx, objectName, src, file.Size, contentType)
	if err != nil {
		logger.Log.Error("avatar upload failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return "", util.ErrUploadFailed
	}

	if err := s.UserRepo.UpdateProfilePic(user.ID, url); err != nil {
		return "", err
	}
	return url, nil
}

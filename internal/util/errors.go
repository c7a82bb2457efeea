package util

import "errors"

var (
	ErrUserNotFound         = errors.New("用户不存在")
	ErrEmailRegistered      = errors.New("该邮箱已被注册")
	ErrUsernameTaken        = errors.New("该用户名已被占用")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPendingApproval      = errors.New("account pending admin approval")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrIncompleteSubmission = errors.New("all questions must be answered")
	ErrUnknownUser          = errors.New("unknown user")
	ErrInvalidTarget        = errors.New("invalid target user")
	ErrUploadFailed         = errors.New("upload failed")
	ErrTokenInvalid         = errors.New("invalid or expired reset link")
	ErrMailDelivery         = errors.New("failed to send email")
)

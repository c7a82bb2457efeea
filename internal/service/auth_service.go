package service

import (
	"context"
	"errors"
	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/util"
	"exam_portal_backend/pkg/logger"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResetTokenTTL 重置链接有效期
const ResetTokenTTL = 30 * time.Minute

type AuthService struct {
	UserRepo *repository.UserRepository
	Identity IdentityProvider
	Mail     MailSender
	Tokens   *ResetTokenStore
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, identity IdentityProvider, mail MailSender, tokens *ResetTokenStore, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Identity: identity,
		Mail:     mail,
		Tokens:   tokens,
		Cfg:      cfg,
	}
}

// Register 在身份服务注册后创建本地用户。
// 新用户一律是未审批的学生，等待管理员放行。
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.UserRepo.FindByEmail(email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.UserRepo.FindByUsername(username); err == nil {
		return nil, util.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cred, err := s.Identity.SignUp(ctx, email, password, map[string]string{"username": username})
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ExternalID: cred.ExternalID,
		Username:   username,
		Email:      email,
		Password:   cred.LocalHash,
		Role:       model.Student,
		Approved:   false,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 凭据交给身份服务校验。本地记录缺失时惰性建档（未审批的学生）。
// 未审批学生登录被拒并注销身份服务会话，避免半登录状态残留。
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	session, err := s.Identity.SignIn(ctx, email, password)
	if err != nil {
		return "", util.ErrInvalidCredentials
	}

	user, err := s.UserRepo.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &model.User{
			ExternalID: session.ExternalID,
			Username:   strings.SplitN(email, "@", 2)[0],
			Email:      email,
			Role:       model.Student,
			Approved:   false,
		}
		if err := s.UserRepo.Create(user); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}

	if user.Role == model.Student && !user.Approved {
		if err := s.Identity.SignOut(ctx, session); err != nil {
			logger.Log.Warn("identity sign-out after pending-approval rejection failed", zap.Error(err))
		}
		return "", util.ErrPendingApproval
	}

	return util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
}

func (s *AuthService) GetCurrentUser(c *gin.Context) *model.User {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return nil
	}

	user, _ := s.UserRepo.FindByID(claims.UserID)
	return user
}

// RequestPasswordReset 给已注册邮箱发送重置链接。
// 邮箱不存在时同样静默成功，不泄露注册状态。
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.UserRepo.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	} else if err != nil {
		return err
	}

	token, err := util.GenerateResetToken(email, s.Cfg.JWT.Secret, ResetTokenTTL)
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset_password/%s", s.resetBaseURL(), token)
	body := fmt.Sprintf(`Hello %s,

You requested a password reset for your Exam Portal account.

Click this link to reset your password (expires in 30 minutes):
%s

If you didn't request this, please ignore this email.`, user.Username, resetURL)

	if err := s.Mail.Send(email, "Password Reset - Exam Portal", body); err != nil {
		logger.Log.Error("reset mail delivery failed", zap.Error(err))
		return util.ErrMailDelivery
	}
	return nil
}

func (s *AuthService) resetBaseURL() string {
	if len(s.Cfg.CORS.AllowedOrigins) > 0 {
		return strings.TrimRight(s.Cfg.CORS.AllowedOrigins[0], "/")
	}
	return "http://localhost:" + s.Cfg.Server.Port
}

// ResetPassword 校验签名令牌并改密。令牌消费在改密前登记，保证一次性；
// 改密没有成功时撤销登记，链接在有效期内可重试。
// 所有校验失败都折叠成同一个错误，不区分过期、伪造或重复使用。
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := util.ParseResetToken(token, s.Cfg.JWT.Secret)
	if err != nil {
		return util.ErrTokenInvalid
	}

	fresh, err := s.Tokens.Consume(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !fresh {
		return util.ErrTokenInvalid
	}

	user, err := s.UserRepo.FindByEmail(claims.Email)
	if err != nil {
		s.releaseToken(ctx, claims.ID)
		return util.ErrTokenInvalid
	}

	if err := s.Identity.UpdatePassword(ctx, user.ExternalID, newPassword); err != nil {
		s.releaseToken(ctx, claims.ID)
		return err
	}
	return nil
}

func (s *AuthService) releaseToken(ctx context.Context, jti string) {
	if err := s.Tokens.Release(ctx, jti); err != nil {
		logger.Log.Warn("reset token release failed", zap.String("jti", jti), zap.Error(err))
	}
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"exam_portal_backend/internal/config"
	"exam_portal_backend/internal/model"
	"exam_portal_backend/internal/repository"
	"exam_portal_backend/internal/util"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// IdentitySession 外部身份服务返回的会话
type IdentitySession struct {
	ExternalID  string
	AccessToken string
}

// IdentityCredential 注册结果；LocalHash 仅本地实现返回，需要落到用户行上
type IdentityCredential struct {
	ExternalID string
	LocalHash  string
}

// IdentityProvider 外部身份服务的窄接口：注册、登录、登出、改密。
// 本地用户通过 ExternalID 关联身份服务里的账号。
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string, attributes map[string]string) (*IdentityCredential, error)
	SignIn(ctx context.Context, email, password string) (*IdentitySession, error)
	SignOut(ctx context.Context, session *IdentitySession) error
	UpdatePassword(ctx context.Context, externalID, newPassword string) error
}

// LocalIdentityProvider 基于 bcrypt 的本地实现，口令散列存在用户表里
type LocalIdentityProvider struct {
	UserRepo *repository.UserRepository
}

func (p *LocalIdentityProvider) SignUp(ctx context.Context, email, password string, attributes map[string]string) (*IdentityCredential, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &IdentityCredential{
		ExternalID: model.GenerateUUID(),
		LocalHash:  string(hash),
	}, nil
}

func (p *LocalIdentityProvider) SignIn(ctx context.Context, email, password string) (*IdentitySession, error) {
	user, err := p.UserRepo.FindByEmail(email)
	if err != nil {
		return nil, util.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}
	return &IdentitySession{ExternalID: user.ExternalID}, nil
}

func (p *LocalIdentityProvider) SignOut(ctx context.Context, session *IdentitySession) error {
	// 本地实现无会话状态
	return nil
}

func (p *LocalIdentityProvider) UpdatePassword(ctx context.Context, externalID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return p.UserRepo.DB.Model(&model.User{}).
		Where("external_id = ?", externalID).
		Update("password", string(hash)).Error
}

// SupabaseIdentityProvider GoTrue HTTP API 实现，服务端使用 service role key
type SupabaseIdentityProvider struct {
	BaseURL    string
	ServiceKey string
	Client     *http.Client
}

func NewSupabaseIdentityProvider(cfg *config.IdentityConfig) *SupabaseIdentityProvider {
	return &SupabaseIdentityProvider{
		BaseURL:    cfg.SupabaseURL,
		ServiceKey: cfg.SupabaseServiceKey,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type supabaseUser struct {
	ID string `json:"id"`
}

type supabaseAuthResponse struct {
	ID          string       `json:"id"`
	AccessToken string       `json:"access_token"`
	User        supabaseUser `json:"user"`
}

func (p *SupabaseIdentityProvider) do(ctx context.Context, method, path, bearer string, body interface{}, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.ServiceKey)
	if bearer == "" {
		bearer = p.ServiceKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("identity provider: %s %s returned %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (p *SupabaseIdentityProvider) SignUp(ctx context.Context, email, password string, attributes map[string]string) (*IdentityCredential, error) {
	var res supabaseAuthResponse
	payload := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     attributes,
	}
	if err := p.do(ctx, http.MethodPost, "/auth/v1/signup", "", payload, &res); err != nil {
		return nil, err
	}
	id := res.ID
	if id == "" {
		id = res.User.ID
	}
	if id == "" {
		return nil, fmt.Errorf("identity provider: signup returned no user id")
	}
	return &IdentityCredential{ExternalID: id}, nil
}

func (p *SupabaseIdentityProvider) SignIn(ctx context.Context, email, password string) (*IdentitySession, error) {
	var res supabaseAuthResponse
	payload := map[string]string{"email": email, "password": password}
	if err := p.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", payload, &res); err != nil {
		return nil, util.ErrInvalidCredentials
	}
	return &IdentitySession{ExternalID: res.User.ID, AccessToken: res.AccessToken}, nil
}

func (p *SupabaseIdentityProvider) SignOut(ctx context.Context, session *IdentitySession) error {
	if session == nil || session.AccessToken == "" {
		return nil
	}
	return p.do(ctx, http.MethodPost, "/auth/v1/logout", session.AccessToken, nil, nil)
}

func (p *SupabaseIdentityProvider) UpdatePassword(ctx context.Context, externalID, newPassword string) error {
	payload := map[string]string{"password": newPassword}
	return p.do(ctx, http.MethodPut, "/auth/v1/admin/users/"+externalID, "", payload, nil)
}

// NewIdentityProvider 按配置选择实现，默认为本地
func NewIdentityProvider(cfg *config.Config, db *gorm.DB) IdentityProvider {
	switch cfg.Identity.Type {
	case "supabase":
		if cfg.Identity.SupabaseURL != "" {
			return NewSupabaseIdentityProvider(&cfg.Identity)
		}
	}
	return &LocalIdentityProvider{UserRepo: repository.NewUserRepository(db)}
}

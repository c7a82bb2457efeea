package service

import (
	"exam_portal_backend/internal/config"

	"gopkg.in/gomail.v2"
)

// MailSender 窄接口，测试里用假实现替换
type MailSender interface {
	Send(to, subject, body string) error
}

// MailService SMTP 邮件发送
type MailService struct {
	Cfg    *config.MailConfig
	dialer *gomail.Dialer
}

func NewMailService(cfg *config.MailConfig) *MailService {
	return &MailService{
		Cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *MailService) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.Cfg.From, s.Cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return s.dialer.DialAndSend(m)
}

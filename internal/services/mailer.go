package services

import (
	"context"
	"fmt"
	"net"
	"net/smtp"

	"jeeforces/internal/logger"

	"go.uber.org/zap"
)

type Mailer interface {
	SendVerification(ctx context.Context, to, username, link string) error
}

type SMTPConfig struct {
	Server   string
	User     string
	Password string
}

func (c SMTPConfig) configured() bool {
	return c.Server != "" && c.User != "" && c.Password != ""
}

// NewMailer returns an SMTP mailer, or a mailer that only logs links when SMTP is not configured.
func NewMailer(cfg SMTPConfig) Mailer {
	if !cfg.configured() {
		return logMailer{}
	}
	return &smtpMailer{cfg: cfg}
}

type smtpMailer struct {
	cfg SMTPConfig
}

func (m *smtpMailer) SendVerification(ctx context.Context, to, username, link string) error {
	host, _, err := net.SplitHostPort(m.cfg.Server)
	if err != nil {
		return fmt.Errorf("invalid SMTP_SERVER format (expected host:port): %w", err)
	}

	subject := "Verify your JEE Forces account"
	body := fmt.Sprintf("Hi %s,\n\nConfirm your email address by opening the link below:\n%s\n\nThe link expires in 24 hours.\n\nJEE Forces", username, link)
	msg := []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n\r\n" +
		body + "\r\n")

	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, host)
	if err := smtp.SendMail(m.cfg.Server, auth, m.cfg.User, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", m.cfg.Server, err)
	}
	return nil
}

type logMailer struct{}

func (logMailer) SendVerification(_ context.Context, to, username, link string) error {
	logger.Log.Info("SMTP not configured, verification link not mailed",
		zap.String("to", to),
		zap.String("username", username),
		zap.String("link", link))
	return nil
}

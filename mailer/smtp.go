package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"os"
	"strings"
)

// SMTPSender delivers reminder emails over plain SMTP with optional AUTH.
type SMTPSender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	ReplyTo  string
}

// FromEnv builds a sender from SMTP_* environment variables. Returns nil when
// SMTP_HOST is unset so callers can fall back to a no-op sender in dev.
func FromEnv() *SMTPSender {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return nil
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	return &SMTPSender{
		Host:     host,
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
		ReplyTo:  os.Getenv("SMTP_REPLY_TO"),
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if s.From == "" {
		return errors.New("SMTP_FROM not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	if s.ReplyTo != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", s.ReplyTo)
	}
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := s.Host + ":" + s.Port
	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	return smtp.SendMail(addr, auth, s.From, []string{to}, []byte(msg.String()))
}

// NopSender accepts every message without delivering it. Used when no SMTP
// host is configured.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, to, subject, body string) error {
	return nil
}

package notifier

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Port != "" && c.From != ""
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender mails each recipient individually over SMTP with PLAIN auth.
type SMTPSender struct {
	config   SMTPConfig
	sendMail sendMailFunc
}

func NewSMTPSender(config SMTPConfig) *SMTPSender {
	return &SMTPSender{config: config, sendMail: smtp.SendMail}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	addr := s.config.Host + ":" + s.config.Port
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	var errs []error
	for _, user := range msg.To {
		if user.Email == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		body := buildMail(s.config.From, user.Email, msg.Subject, msg.HTML)
		if err := s.sendMail(addr, auth, s.config.From, []string{user.Email}, body); err != nil {
			errs = append(errs, fmt.Errorf("smtp send to %s: %w", user.Email, err))
		}
	}
	return errors.Join(errs...)
}

func buildMail(from, to, subject, html string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("UTF-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}

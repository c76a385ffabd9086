// Package mail sends invitation notices over SMTP.
package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"giftnest/internal/config"
	"giftnest/internal/gift"
)

// SMTPMailer implements gift.Mailer against a plain SMTP relay.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	m := &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		from: from,
	}
	if username != "" {
		m.auth = smtp.PlainAuth("", username, password, host)
	}
	return m
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// NewMailerFromConfig creates a Mailer based on the SMTP config type.
func NewMailerFromConfig(cfg config.SMTPConfig) (gift.Mailer, error) {
	switch cfg.Type {
	case "", "none":
		return gift.NewNopMailer(), nil
	case "smtp":
		if cfg.Host == "" || cfg.From == "" {
			return nil, fmt.Errorf("host and from required for smtp mailer")
		}
		port := cfg.Port
		if port == 0 {
			port = 587
		}
		return NewSMTPMailer(cfg.Host, port, cfg.Username, cfg.Password, cfg.From), nil
	default:
		return nil, fmt.Errorf("unknown smtp type: %s", cfg.Type)
	}
}

var _ gift.Mailer = (*SMTPMailer)(nil)

// Package outreach composes and sends first-contact emails to longlisted investors.
package outreach

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nurpe/dealflow/internal/config"
)

var ErrNoRecipients = errors.New("outreach: no recipients")

type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers a message. Implementations must not return before the message is handed off.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends plain-text mail. When no SMTP host is configured it only logs the message.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	auth smtp.Auth
	send sendFunc
	log  zerolog.Logger
}

func NewSMTPMailer(cfg config.SMTPConfig, log zerolog.Logger) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{cfg: cfg, auth: auth, send: smtp.SendMail, log: log}
}

func (m *SMTPMailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.Port != "" && m.cfg.From != ""
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.Configured() {
		m.log.Info().Strs("to", msg.To).Str("subject", msg.Subject).Msg("smtp not configured, outreach recorded only")
		return nil
	}
	if err := m.send(m.cfg.Host+":"+m.cfg.Port, m.auth, m.cfg.From, msg.To, m.render(msg)); err != nil {
		return fmt.Errorf("send outreach: %w", err)
	}
	m.log.Debug().Strs("to", msg.To).Msg("outreach sent")
	return nil
}

func (m *SMTPMailer) render(msg Message) []byte {
	from := m.cfg.From
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.From)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}

func sanitizeHeader(value string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
}

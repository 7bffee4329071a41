// Package mailer delivers account emails. Delivery failures are logged and
// reported as false; callers decide whether to roll back or ask for a retry.
package mailer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go-blog-app/internal/config"
	"go-blog-app/internal/logger"

	"github.com/wneessen/go-mail"
)

// Sender sends a plain-text email and reports whether it was accepted for delivery.
type Sender interface {
	Send(ctx context.Context, subject, body string, to []string) bool
}

// New returns the backend selected by cfg.Backend.
func New(cfg config.MailConfig, out io.Writer, log logger.Logger) Sender {
	if cfg.Backend == "smtp" {
		return NewSMTPSender(cfg, log)
	}
	return NewConsoleSender(cfg.From, out)
}

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	cfg config.MailConfig
	log logger.Logger
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(cfg config.MailConfig, log logger.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: log}
}

// Send dials the relay and sends one message.
func (s *SMTPSender) Send(ctx context.Context, subject, body string, to []string) bool {
	msg, err := buildMessage(s.cfg.From, subject, body, to)
	if err != nil {
		s.log.Error(err, "Failed to build email")
		return false
	}

	opts := []mail.Option{mail.WithTLSPolicy(mail.TLSOpportunistic)}
	if s.cfg.Port > 0 {
		opts = append(opts, mail.WithPort(s.cfg.Port))
	}
	if s.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.cfg.Timeout))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		s.log.Error(err, "Failed to create SMTP client")
		return false
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		s.log.With(map[string]interface{}{"to": strings.Join(to, ",")}).Error(err, "Failed to send email")
		return false
	}
	return true
}

func buildMessage(from, subject, body string, to []string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

// ConsoleSender writes messages to out instead of sending them. It is the
// development backend.
type ConsoleSender struct {
	from string
	mu   sync.Mutex
	out  io.Writer
}

// NewConsoleSender creates a ConsoleSender.
func NewConsoleSender(from string, out io.Writer) *ConsoleSender {
	return &ConsoleSender{from: from, out: out}
}

// Send renders the message with go-mail and writes it out.
func (c *ConsoleSender) Send(_ context.Context, subject, body string, to []string) bool {
	msg, err := buildMessage(c.from, subject, body, to)
	if err != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := msg.WriteTo(c.out); err != nil {
		return false
	}
	_, err = io.WriteString(c.out, "\n"+strings.Repeat("-", 72)+"\n")
	return err == nil
}

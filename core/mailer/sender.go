package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"ticket-desk/config"
	"ticket-desk/core/utils"
)

type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers plain-text mail. Port 465 uses implicit TLS; other ports
// upgrade with STARTTLS when the server offers it.
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
	ssl      bool
	timeout  time.Duration
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		host:     strings.TrimSpace(cfg.Host),
		port:     cfg.Port,
		user:     strings.TrimSpace(cfg.User),
		password: cfg.Password,
		ssl:      cfg.ImplicitTLS(),
		timeout:  cfg.Timeout(),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("mail recipient missing")
	}
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return fmt.Errorf("mail from %q: %w", msg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("mail to %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.user),
		mail.WithPassword(s.password),
		mail.WithTimeout(s.timeout),
	}
	if s.ssl {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	client, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// NopSender stands in when SMTP is not configured.
type NopSender struct {
	logger *utils.Logger
}

func NewNopSender(logger *utils.Logger) *NopSender {
	return &NopSender{logger: logger}
}

func (s *NopSender) Send(_ context.Context, msg Message) error {
	if s.logger != nil {
		s.logger.Printf("mail transport not configured, skipping %q to %s", msg.Subject, msg.To)
	}
	return nil
}

// NewSender picks SMTPSender when host, user and password are all set.
func NewSender(cfg config.MailConfig, logger *utils.Logger) Sender {
	if cfg.Configured() {
		return NewSMTPSender(cfg)
	}
	if logger != nil {
		logger.Warnf("SMTP not configured; notification mail disabled")
	}
	return NewNopSender(logger)
}

package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"docflow/internal/config"
)

// SMTPMailer sends mail through a configured SMTP relay. When no host is
// configured the mailer is disabled and Send becomes a logged no-op, matching
// the service's best-effort notification contract.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewSMTPMailer builds a mailer from config. A nil-client (disabled) mailer
// is returned without error when SMTP is not configured.
func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		logJSON(map[string]any{
			"component": "notify",
			"event":     "smtp_disabled",
			"level":     "warn",
			"msg":       "SMTP not configured, email sending disabled",
		})
		return &SMTPMailer{}, nil
	}

	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.From}, nil
}

var _ Mailer = (*SMTPMailer)(nil)

// Send delivers a single plain-text message.
func (m *SMTPMailer) Send(ctx context.Context, recipient, subject, body string) error {
	if m.client == nil {
		logJSON(map[string]any{
			"component": "notify",
			"event":     "smtp_send_skipped",
			"recipient": recipient,
		})
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(recipient); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", recipient, err)
	}
	return nil
}

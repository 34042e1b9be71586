// Package mail delivers rendered reports over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/moltbook/moltbot/internal/config"
)

// Sender delivers one HTML message.
type Sender interface {
	Send(ctx context.Context, to []string, subject, html string) error
}

// NewSender returns an SMTP sender when the config carries a complete
// SMTP block, and a logging no-op otherwise.
func NewSender(cfg config.SMTPConfig, logger *slog.Logger) Sender {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Configured() {
		return &NopSender{logger: logger}
	}
	return &SMTPSender{cfg: cfg, logger: logger}
}

// SMTPSender sends through a configured SMTP relay.
type SMTPSender struct {
	cfg    config.SMTPConfig
	logger *slog.Logger
}

// Send implements Sender.
func (s *SMTPSender) Send(ctx context.Context, to []string, subject, html string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("mail: from address: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("mail: to addresses: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, html)

	client, err := gomail.NewClient(s.cfg.Host,
		gomail.WithPort(s.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Username),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("mail: client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	s.logger.Info("report mailed", "to", to, "subject", subject)
	return nil
}

// NopSender is used when SMTP is not configured. Skipping delivery is
// a valid outcome, not an error.
type NopSender struct {
	logger *slog.Logger
}

// Send implements Sender.
func (n *NopSender) Send(_ context.Context, to []string, subject, _ string) error {
	n.logger.Info("smtp not configured, skipping mail delivery", "to", to, "subject", subject)
	return nil
}

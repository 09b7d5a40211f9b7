// Package email delivers staff notification mail over SMTP.
package email

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers notification emails. A nil *SMTPSender is a usable no-op
// so callers don't need to branch on whether email is configured.
type Sender interface {
	SendAssignmentNotification(ctx context.Context, toEmail, staffName, animalType, address, reportID string) error
}

// Config provides the SMTP settings.
type Config interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddr() string
}

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a sender from configuration.
func NewSMTPSender(cfg Config) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddr(),
	}
}

// SendAssignmentNotification tells a staff member a new report was assigned
// to them. Delivery is best-effort; the report stands regardless.
func (s *SMTPSender) SendAssignmentNotification(ctx context.Context, toEmail, staffName, animalType, address, reportID string) error {
	if s == nil {
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}

	msg.Subject(fmt.Sprintf("新しい被害報告が割り当てられました (%s)", animalType))
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(
		"%s さん\n\n新しい被害報告が割り当てられました。\n\n動物種: %s\n場所: %s\n報告ID: %s\n",
		staffName, animalType, address, reportID))

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

var _ Sender = (*SMTPSender)(nil)

// Package notifier emails rendered analysis reports to the operator.
package notifier

import (
	"fmt"

	"github.com/ibeckermayer/replyloop/internal/config"
	"github.com/ibeckermayer/replyloop/internal/notifier/providers"
	"github.com/ibeckermayer/replyloop/internal/report"
)

// Notifier handles sending report notifications
type Notifier struct {
	sender Sender
	to     string
}

// Sender defines the interface for email sending
type Sender interface {
	Send(to, subject, htmlBody, plainBody string) error
}

// New creates a new notifier delivering to the given address
func New(sender Sender, to string) *Notifier {
	return &Notifier{sender: sender, to: to}
}

// NewFromConfig creates a notifier based on configuration
func NewFromConfig(cfg config.EmailConfig) (*Notifier, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("email is not configured (smtp_host and to_address are required)")
	}

	var sender Sender

	switch cfg.Provider {
	case "", "smtp":
		sender = providers.NewSMTPSender(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.SMTPPass,
			cfg.FromAddr,
		)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}

	return New(sender, cfg.ToAddr), nil
}

// SendReport emails a rendered report
func (n *Notifier) SendReport(r *report.Report) error {
	if err := n.sender.Send(n.to, r.Subject, r.HTMLBody, r.PlainBody); err != nil {
		return fmt.Errorf("failed to send report %s: %w", r.RunID, err)
	}
	return nil
}

package notifications

import (
	"context"
	"fmt"

	"github.com/UVMHacks2025/BashProShop/internal/config"
	"github.com/wneessen/go-mail"
)

// SMTPNotifier delivers confirmations over SMTP with STARTTLS and plain auth.
type SMTPNotifier struct {
	cfg config.MailConfig
}

func NewSMTPNotifier(cfg config.MailConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) buildMessage(in PaymentConfirmationInput) (*mail.Msg, error) {
	body, err := renderConfirmation(in)
	if err != nil {
		return nil, fmt.Errorf("render confirmation: %w", err)
	}

	m := mail.NewMsg()
	if err := m.From(n.cfg.User); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := m.To(in.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	m.Subject(confirmationSubject(in))
	m.SetBodyString(mail.TypeTextHTML, body)

	return m, nil
}

func (n *SMTPNotifier) SendPaymentConfirmation(ctx context.Context, in PaymentConfirmationInput) error {
	m, err := n.buildMessage(in)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(n.cfg.Server,
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.User),
		mail.WithPassword(n.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

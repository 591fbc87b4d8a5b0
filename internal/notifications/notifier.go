package notifications

import "context"

type PaymentConfirmationInput struct {
	To           string
	ItemName     string
	Amount       string // major units, already formatted for display
	Currency     string
	SupportEmail string
	SessionID    string
}

type Notifier interface {
	SendPaymentConfirmation(ctx context.Context, input PaymentConfirmationInput) error
}

package payment

import "errors"

var (
	ErrProcessor          = errors.New("payment processor error")
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrNotComplete        = errors.New("checkout session is not complete")
	ErrInvalidCheckout    = errors.New("invalid checkout request")
	ErrNoRecipient        = errors.New("checkout session has no customer email")
	ErrNotificationFailed = errors.New("confirmation email failed")

	ErrConfirmationAlreadySent = errors.New("payment confirmation already sent")
	ErrConfirmationInProgress  = errors.New("payment confirmation in progress")
)

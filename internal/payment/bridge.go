package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/UVMHacks2025/BashProShop/internal/domain/order"
	"github.com/UVMHacks2025/BashProShop/internal/notifications"
	"github.com/UVMHacks2025/BashProShop/internal/observability"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Processor is the part of the hosted payment API the bridge talks to.
type Processor interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
}

// ConfirmationLedger records which sessions already had their email sent.
type ConfirmationLedger interface {
	TryStart(ctx context.Context, sessionID, recipient string) error
	MarkSent(ctx context.Context, sessionID string) error
	MarkFailed(ctx context.Context, sessionID, errMsg string) error
}

type OrderRecorder interface {
	Record(ctx context.Context, o order.Order) (bool, error)
}

type Config struct {
	Processor     Processor
	WebhookSecret string
	// Notifier is nil when mail credentials are missing; sending is then skipped.
	Notifier         notifications.Notifier
	Ledger           ConfirmationLedger
	Orders           OrderRecorder
	SupportEmail     string
	WebhookTolerance time.Duration
	Logger           *slog.Logger
	Prom             *observability.Prom
}

type Bridge struct {
	processor     Processor
	webhookSecret string
	notifier      notifications.Notifier
	ledger        ConfirmationLedger
	orders        OrderRecorder
	supportEmail  string
	tolerance     time.Duration
	log           *slog.Logger
	prom          *observability.Prom
}

func NewBridge(cfg Config) *Bridge {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WebhookTolerance <= 0 {
		cfg.WebhookTolerance = webhook.DefaultTolerance
	}

	return &Bridge{
		processor:     cfg.Processor,
		webhookSecret: cfg.WebhookSecret,
		notifier:      cfg.Notifier,
		ledger:        cfg.Ledger,
		orders:        cfg.Orders,
		supportEmail:  cfg.SupportEmail,
		tolerance:     cfg.WebhookTolerance,
		log:           cfg.Logger,
		prom:          cfg.Prom,
	}
}

// CreateCheckoutSession opens a hosted payment page. Processor failures are
// logged and reported as ErrProcessor; callers show their own cancel page.
func (b *Bridge) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (Session, error) {
	if len(req.LineItems) == 0 || req.SuccessURL == "" || req.CancelURL == "" {
		return Session{}, ErrInvalidCheckout
	}

	for _, li := range req.LineItems {
		if li.UnitAmount < 0 || li.Quantity <= 0 || li.Currency == "" {
			return Session{}, ErrInvalidCheckout
		}
	}

	s, err := b.processor.CreateSession(ctx, req)
	if err != nil {
		b.log.ErrorContext(ctx, "payment.create_checkout_session failed", "err", err)
		b.prom.IncCheckoutSession("processor_error")
		return Session{}, fmt.Errorf("%w: %v", ErrProcessor, err)
	}

	b.prom.IncCheckoutSession("created")
	b.log.InfoContext(ctx, "payment.checkout_session_created", "session_id", s.ID, "state", s.State.String())

	return s, nil
}

// CheckSession fetches the current state of a session from the processor.
func (b *Bridge) CheckSession(ctx context.Context, id string) (Session, error) {
	s, err := b.processor.GetSession(ctx, id)
	if err != nil {
		b.log.ErrorContext(ctx, "payment.check_checkout_session failed", "session_id", id, "err", err)
		return Session{}, fmt.Errorf("%w: %v", ErrProcessor, err)
	}
	return s, nil
}

// VerifyWebhook authenticates an inbound webhook. Bodies that are not JSON
// yield ErrInvalidPayload; a signature that does not verify against the
// shared secret yields ErrInvalidSignature. Nothing unverified is returned.
func (b *Bridge) VerifyWebhook(payload []byte, signatureHeader string) (Event, error) {
	if !json.Valid(payload) {
		return Event{}, ErrInvalidPayload
	}

	if b.webhookSecret == "" {
		return Event{}, ErrInvalidSignature
	}

	if err := webhook.ValidatePayloadWithTolerance(payload, signatureHeader, b.webhookSecret, b.tolerance); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var raw stripe.Event
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if raw.Type == "" {
		return Event{}, fmt.Errorf("%w: missing event type", ErrInvalidPayload)
	}

	ev := Event{ID: raw.ID, Type: string(raw.Type)}

	if raw.Data != nil && len(raw.Data.Raw) > 0 && isCheckoutSessionEvent(ev.Type) {
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(raw.Data.Raw, &cs); err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		s := fromStripeSession(&cs)
		ev.Session = &s
	}

	return ev, nil
}

// Confirm re-fetches the session and succeeds only when the processor itself
// reports it complete. The webhook body is never taken as proof of payment.
func (b *Bridge) Confirm(ctx context.Context, sessionID string) (ConfirmedSession, error) {
	if sessionID == "" {
		return ConfirmedSession{}, ErrNotComplete
	}

	s, err := b.CheckSession(ctx, sessionID)
	if err != nil {
		return ConfirmedSession{}, err
	}

	if s.State != StateComplete {
		return ConfirmedSession{}, fmt.Errorf("%w: state=%s", ErrNotComplete, s.State)
	}

	return ConfirmedSession{s: s}, nil
}

// HandlePayment sends the buyer one confirmation email for a completed
// session and reports whether it was sent. Missing mail configuration and
// sessions that are not complete both return false without an error.
func (b *Bridge) HandlePayment(ctx context.Context, s Session) (bool, error) {
	// without a transport there is nothing to confirm for
	if b.notifier == nil {
		b.mailDisabled(ctx)
		return false, nil
	}

	res, err := b.fulfill(ctx, s, false)
	return res.EmailSent, err
}

type FulfillmentResult struct {
	Confirmed     bool
	OrderRecorded bool
	EmailSent     bool
}

// Fulfill is the webhook path: confirm once, record the order, then email.
func (b *Bridge) Fulfill(ctx context.Context, s Session) (FulfillmentResult, error) {
	return b.fulfill(ctx, s, true)
}

func (b *Bridge) fulfill(ctx context.Context, s Session, withOrder bool) (FulfillmentResult, error) {
	var res FulfillmentResult

	confirmed, err := b.Confirm(ctx, s.ID)
	if err != nil {
		if errors.Is(err, ErrNotComplete) {
			b.log.InfoContext(ctx, "payment not successful", "session_id", s.ID)
			b.prom.IncConfirmationEmail("not_complete")
			return res, nil
		}
		return res, err
	}
	res.Confirmed = true

	if withOrder {
		res.OrderRecorded, err = b.recordOrder(ctx, confirmed)
		if err != nil {
			return res, err
		}
	}

	res.EmailSent, err = b.notify(ctx, confirmed)
	return res, err
}

func (b *Bridge) mailDisabled(ctx context.Context) {
	b.log.ErrorContext(ctx, "EMAIL_USER or EMAIL_PASS or SMTP_SERVER or SMTP_PORT is not set")
	b.prom.IncConfirmationEmail("mail_disabled")
}

func (b *Bridge) recordOrder(ctx context.Context, c ConfirmedSession) (bool, error) {
	if b.orders == nil {
		return false, nil
	}

	s := c.Session()
	listingID, buyerID, sellerID := s.Metadata[MetaListingID], s.Metadata[MetaBuyerID], s.Metadata[MetaSellerID]
	if listingID == "" || buyerID == "" || sellerID == "" {
		b.log.WarnContext(ctx, "payment.order_not_recorded: session metadata incomplete", "session_id", s.ID)
		return false, nil
	}

	created, err := b.orders.Record(ctx, order.New(listingID, buyerID, sellerID, s.ID))
	if err != nil {
		b.log.ErrorContext(ctx, "payment.record_order failed", "session_id", s.ID, "err", err)
		return false, err
	}
	return created, nil
}

func (b *Bridge) notify(ctx context.Context, c ConfirmedSession) (bool, error) {
	if b.notifier == nil {
		b.mailDisabled(ctx)
		return false, nil
	}

	s := c.Session()

	if s.CustomerEmail == "" {
		b.log.ErrorContext(ctx, "payment.confirmation_skipped: no customer email", "session_id", s.ID)
		b.prom.IncConfirmationEmail("failed")
		return false, ErrNoRecipient
	}

	if b.ledger != nil {
		if err := b.ledger.TryStart(ctx, s.ID, s.CustomerEmail); err != nil {
			if errors.Is(err, ErrConfirmationAlreadySent) || errors.Is(err, ErrConfirmationInProgress) {
				b.log.InfoContext(ctx, "payment.confirmation_duplicate", "session_id", s.ID, "reason", err.Error())
				b.prom.IncConfirmationEmail("duplicate")
				return false, nil
			}
			return false, err
		}
	}

	itemName := s.Metadata[MetaListingName]
	if itemName == "" {
		itemName = "item"
	}

	b.log.InfoContext(ctx, "Sending email", "to", s.CustomerEmail, "session_id", s.ID)

	err := b.notifier.SendPaymentConfirmation(ctx, notifications.PaymentConfirmationInput{
		To:           s.CustomerEmail,
		ItemName:     itemName,
		Amount:       FormatMinorUnits(s.AmountTotal),
		Currency:     s.Currency,
		SupportEmail: b.supportEmail,
		SessionID:    s.ID,
	})
	if err != nil {
		b.log.ErrorContext(ctx, "Error sending email", "session_id", s.ID, "err", err)
		b.prom.IncConfirmationEmail("failed")
		if b.ledger != nil {
			if mErr := b.ledger.MarkFailed(ctx, s.ID, err.Error()); mErr != nil {
				b.log.ErrorContext(ctx, "payment.confirmation mark_failed", "session_id", s.ID, "err", mErr)
			}
		}
		return false, fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	if b.ledger != nil {
		if err := b.ledger.MarkSent(ctx, s.ID); err != nil {
			// row stays 'sending'; redeliveries are treated as duplicates
			b.log.ErrorContext(ctx, "payment.confirmation mark_sent", "session_id", s.ID, "err", err)
		}
	}

	b.log.InfoContext(ctx, "Email sent", "to", s.CustomerEmail, "session_id", s.ID)
	b.prom.IncConfirmationEmail("sent")

	return true, nil
}

func isCheckoutSessionEvent(t string) bool {
	return strings.HasPrefix(t, "checkout.session.")
}

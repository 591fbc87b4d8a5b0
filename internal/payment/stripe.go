package payment

import (
	"context"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
)

// StripeProcessor implements Processor on top of Stripe Checkout.
type StripeProcessor struct {
	sessions *session.Client
}

func NewStripeProcessor(secretKey string) *StripeProcessor {
	return NewStripeProcessorWithBackend(secretKey, stripe.GetBackend(stripe.APIBackend))
}

func NewStripeProcessorWithBackend(secretKey string, backend stripe.Backend) *StripeProcessor {
	return &StripeProcessor{
		sessions: &session.Client{B: backend, Key: secretKey},
	}
}

func (p *StripeProcessor) CreateSession(ctx context.Context, req CheckoutRequest) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	params.Context = ctx

	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	for _, li := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(li.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(li.Name),
				},
				UnitAmount: stripe.Int64(li.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	cs, err := p.sessions.New(params)
	if err != nil {
		return Session{}, err
	}

	return fromStripeSession(cs), nil
}

func (p *StripeProcessor) GetSession(ctx context.Context, id string) (Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	cs, err := p.sessions.Get(id, params)
	if err != nil {
		return Session{}, err
	}

	return fromStripeSession(cs), nil
}

func fromStripeSession(cs *stripe.CheckoutSession) Session {
	s := Session{
		ID:            cs.ID,
		URL:           cs.URL,
		State:         ParseSessionState(string(cs.Status)),
		AmountTotal:   cs.AmountTotal,
		Currency:      string(cs.Currency),
		CustomerEmail: cs.CustomerEmail,
		Metadata:      cs.Metadata,
	}

	if s.CustomerEmail == "" && cs.CustomerDetails != nil {
		s.CustomerEmail = cs.CustomerDetails.Email
	}

	// a freshly created session has no status until the page is served
	if s.State == StateUnknown && cs.Status == "" && cs.ID != "" {
		s.State = StateCreated
	}

	return s
}

package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
)

func newTestStripeProcessor(t *testing.T, h http.HandlerFunc) *StripeProcessor {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		HTTPClient:        srv.Client(),
	})

	return NewStripeProcessorWithBackend("sk_test_123", backend)
}

func TestStripeProcessor_CreateSession(t *testing.T) {
	p := newTestStripeProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "card", r.PostForm.Get("payment_method_types[0]"))
		assert.Equal(t, "1000", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "usd", r.PostForm.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, "Desk lamp", r.PostForm.Get("line_items[0][price_data][product_data][name]"))
		assert.Equal(t, "1", r.PostForm.Get("line_items[0][quantity]"))
		assert.Equal(t, "buyer@example.com", r.PostForm.Get("customer_email"))
		assert.Equal(t, "listing-1", r.PostForm.Get("metadata[listing_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_1","status":"open","amount_total":1000,"currency":"usd","customer_email":"buyer@example.com","metadata":{"listing_id":"listing-1"}}`))
	})

	s, err := p.CreateSession(context.Background(), CheckoutRequest{
		LineItems:     []LineItem{{Name: "Desk lamp", UnitAmount: 1000, Currency: "usd", Quantity: 1}},
		SuccessURL:    "https://shop.example/payment_success",
		CancelURL:     "https://shop.example/payment_cancel",
		CustomerEmail: "buyer@example.com",
		Metadata:      map[string]string{MetaListingID: "listing-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", s.URL)
	assert.Equal(t, StateOpen, s.State)
	assert.Equal(t, int64(1000), s.AmountTotal)
	assert.Equal(t, "listing-1", s.Metadata[MetaListingID])
}

func TestStripeProcessor_GetSession_FallsBackToCustomerDetails(t *testing.T) {
	p := newTestStripeProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/checkout/sessions/cs_test_2", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_2","object":"checkout.session","status":"complete","amount_total":1050,"currency":"usd","customer_details":{"email":"paid@example.com"}}`))
	})

	s, err := p.GetSession(context.Background(), "cs_test_2")
	require.NoError(t, err)
	assert.Equal(t, StateComplete, s.State)
	assert.Equal(t, "paid@example.com", s.CustomerEmail)
	assert.Equal(t, "10.5", FormatMinorUnits(s.AmountTotal))
}

func TestStripeProcessor_APIError(t *testing.T) {
	p := newTestStripeProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such checkout.session: cs_missing"}}`))
	})

	_, err := p.GetSession(context.Background(), "cs_missing")
	require.Error(t, err)

	var stripeErr *stripe.Error
	require.True(t, errors.As(err, &stripeErr))
	assert.Equal(t, http.StatusBadRequest, stripeErr.HTTPStatusCode)

	// through the bridge the same failure becomes ErrProcessor
	b := newTestBridge(p, nil, nil)
	_, err = b.CheckSession(context.Background(), "cs_missing")
	assert.ErrorIs(t, err, ErrProcessor)
}

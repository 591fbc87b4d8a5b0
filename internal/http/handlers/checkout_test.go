package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/UVMHacks2025/BashProShop/internal/http/handlers"
	"github.com/UVMHacks2025/BashProShop/internal/payment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func checkoutRouter(listings *fakeListings, bridge *fakeBridge, userID string) *gin.Engine {
	h := handlers.NewCheckoutHandler(listings, bridge, "https://shop.example/", quietLogger())

	r := gin.New()
	r.GET("/payment_success", h.PaymentSuccess)
	r.GET("/payment_cancel", h.PaymentCancel)

	authed := r.Group("/", asUser(userID, "buyer@example.com"))
	authed.GET("/checkout", h.Checkout)
	authed.POST("/create_checkout_session", h.CreateCheckoutSession)
	return r
}

func TestCreateCheckoutSession_SellerBlockedBeforeProcessor(t *testing.T) {
	seller := uuid.NewString()
	listingID := uuid.NewString()
	bridge := &fakeBridge{}
	r := checkoutRouter(fixedListings(listingOwnedBy(listingID, seller, 1000)), bridge, seller)

	w := doRequest(r, http.MethodPost, "/create_checkout_session", formCT, "id="+listingID)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body=%s", w.Code, w.Body.String())
	}
	if bridge.createCalls != 0 {
		t.Fatalf("payment session created %d times for the seller", bridge.createCalls)
	}

	if w := doRequest(r, http.MethodGet, "/checkout?id="+listingID, "", ""); w.Code != http.StatusForbidden {
		t.Fatalf("GET /checkout status = %d, want 403", w.Code)
	}
}

func TestCreateCheckoutSession_RedirectsToHostedPage(t *testing.T) {
	buyer := uuid.NewString()
	seller := uuid.NewString()
	listingID := uuid.NewString()
	bridge := &fakeBridge{}
	r := checkoutRouter(fixedListings(listingOwnedBy(listingID, seller, 1000)), bridge, buyer)

	w := doRequest(r, http.MethodPost, "/create_checkout_session", formCT, "id="+listingID)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303, body=%s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "https://checkout.stripe.test/cs_test_1" {
		t.Fatalf("Location = %q", loc)
	}

	req := bridge.lastCreate
	if len(req.LineItems) != 1 || req.LineItems[0].UnitAmount != 1000 || req.LineItems[0].Currency != "usd" || req.LineItems[0].Quantity != 1 {
		t.Fatalf("line items = %+v", req.LineItems)
	}
	if req.SuccessURL != "https://shop.example/payment_success?session_id={CHECKOUT_SESSION_ID}" {
		t.Fatalf("success url = %q", req.SuccessURL)
	}
	if req.CancelURL != "https://shop.example/payment_cancel" {
		t.Fatalf("cancel url = %q", req.CancelURL)
	}
	if req.CustomerEmail != "buyer@example.com" {
		t.Fatalf("customer email = %q", req.CustomerEmail)
	}
	if req.Metadata[payment.MetaBuyerID] != buyer || req.Metadata[payment.MetaSellerID] != seller || req.Metadata[payment.MetaListingID] != listingID {
		t.Fatalf("metadata = %v", req.Metadata)
	}
}

func TestCreateCheckoutSession_ProcessorErrorRedirectsToCancel(t *testing.T) {
	listingID := uuid.NewString()
	bridge := &fakeBridge{createFn: func(context.Context, payment.CheckoutRequest) (payment.Session, error) {
		return payment.Session{}, payment.ErrProcessor
	}}
	r := checkoutRouter(fixedListings(listingOwnedBy(listingID, uuid.NewString(), 1000)), bridge, uuid.NewString())

	w := doRequest(r, http.MethodPost, "/create_checkout_session", "application/json", `{"id":"`+listingID+`"}`)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://shop.example/payment_cancel" {
		t.Fatalf("Location = %q", loc)
	}
}

func TestCheckout_ShowsAmount(t *testing.T) {
	listingID := uuid.NewString()
	r := checkoutRouter(fixedListings(listingOwnedBy(listingID, uuid.NewString(), 1050)), &fakeBridge{}, uuid.NewString())

	w := doRequest(r, http.MethodGet, "/checkout?id="+listingID, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"amount":"10.5"`) {
		t.Fatalf("amount not formatted: %s", w.Body.String())
	}
}

func TestPaymentSuccess_ReportsSessionState(t *testing.T) {
	bridge := &fakeBridge{checkFn: func(_ context.Context, id string) (payment.Session, error) {
		return payment.Session{ID: id, State: payment.StateOpen}, nil
	}}
	r := checkoutRouter(&fakeListings{}, bridge, uuid.NewString())

	w := doRequest(r, http.MethodGet, "/payment_success?session_id=cs_test_9", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"sessionStatus":"open"`) || !strings.Contains(w.Body.String(), `"paid":false`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	if w := doRequest(r, http.MethodGet, "/payment_cancel", "", ""); w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d", w.Code)
	}
}

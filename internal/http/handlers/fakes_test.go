package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/UVMHacks2025/BashProShop/internal/domain/cart"
	"github.com/UVMHacks2025/BashProShop/internal/domain/listing"
	"github.com/UVMHacks2025/BashProShop/internal/domain/user"
	"github.com/UVMHacks2025/BashProShop/internal/http/middlewares"
	"github.com/UVMHacks2025/BashProShop/internal/payment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// asUser stands in for RequireAuth.
func asUser(userID, email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		middlewares.WithIdentity(c, userID, email)
		c.Next()
	}
}

func doRequest(r http.Handler, method, target, contentType, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// users

type fakeUsers struct {
	mu          sync.Mutex
	createFn    func(ctx context.Context, p user.CreateParams) (user.User, error)
	getFn       func(ctx context.Context, email string) (user.User, error)
	createCalls int
}

func (f *fakeUsers) Create(ctx context.Context, p user.CreateParams) (user.User, error) {
	f.mu.Lock()
	f.createCalls++
	f.mu.Unlock()

	if f.createFn != nil {
		return f.createFn(ctx, p)
	}
	return user.User{
		ID:           uuid.NewString(),
		Email:        p.Email,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Affiliation:  p.Affiliation,
		PasswordHash: p.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getFn != nil {
		return f.getFn(ctx, email)
	}
	return user.User{}, user.ErrNotFound
}

// listings

type fakeListings struct {
	createFn    func(ctx context.Context, l listing.Listing) (listing.Listing, error)
	getFn       func(ctx context.Context, id string) (listing.Listing, error)
	listFn      func(ctx context.Context, f listing.ListFilter) ([]listing.Listing, int, error)
	listCalls   int
	createCalls int
}

func (f *fakeListings) Create(ctx context.Context, l listing.Listing) (listing.Listing, error) {
	f.createCalls++
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return l, nil
}

func (f *fakeListings) GetByID(ctx context.Context, id string) (listing.Listing, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return listing.Listing{}, listing.ErrNotFound
}

func (f *fakeListings) List(ctx context.Context, filter listing.ListFilter) ([]listing.Listing, int, error) {
	f.listCalls++
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func listingOwnedBy(id, sellerID string, priceCents int64) listing.Listing {
	return listing.Listing{
		ID:         id,
		SellerID:   sellerID,
		Name:       "Desk lamp",
		PriceCents: priceCents,
		PostDate:   time.Now().UTC(),
	}
}

func fixedListings(ls ...listing.Listing) *fakeListings {
	return &fakeListings{getFn: func(_ context.Context, id string) (listing.Listing, error) {
		for _, l := range ls {
			if l.ID == id {
				return l, nil
			}
		}
		return listing.Listing{}, listing.ErrNotFound
	}}
}

// cart

type fakeCart struct {
	addFn    func(ctx context.Context, clientID, listingID string) (cart.Item, error)
	listFn   func(ctx context.Context, clientID string) ([]cart.ItemView, error)
	addCalls int
}

func (f *fakeCart) Add(ctx context.Context, clientID, listingID string) (cart.Item, error) {
	f.addCalls++
	if f.addFn != nil {
		return f.addFn(ctx, clientID, listingID)
	}
	return cart.NewItem(clientID, listingID), nil
}

func (f *fakeCart) ListByClient(ctx context.Context, clientID string) ([]cart.ItemView, error) {
	if f.listFn != nil {
		return f.listFn(ctx, clientID)
	}
	return []cart.ItemView{}, nil
}

// payment bridge

type fakeBridge struct {
	createFn    func(ctx context.Context, req payment.CheckoutRequest) (payment.Session, error)
	checkFn     func(ctx context.Context, id string) (payment.Session, error)
	verifyFn    func(payload []byte, sig string) (payment.Event, error)
	fulfillFn   func(ctx context.Context, s payment.Session) (payment.FulfillmentResult, error)
	createCalls int
	lastCreate  payment.CheckoutRequest
}

func (f *fakeBridge) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (payment.Session, error) {
	f.createCalls++
	f.lastCreate = req
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return payment.Session{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1", State: payment.StateOpen}, nil
}

func (f *fakeBridge) CheckSession(ctx context.Context, id string) (payment.Session, error) {
	if f.checkFn != nil {
		return f.checkFn(ctx, id)
	}
	return payment.Session{ID: id, State: payment.StateComplete}, nil
}

func (f *fakeBridge) VerifyWebhook(payload []byte, sig string) (payment.Event, error) {
	if f.verifyFn != nil {
		return f.verifyFn(payload, sig)
	}
	return payment.Event{}, payment.ErrInvalidSignature
}

func (f *fakeBridge) Fulfill(ctx context.Context, s payment.Session) (payment.FulfillmentResult, error) {
	if f.fulfillFn != nil {
		return f.fulfillFn(ctx, s)
	}
	return payment.FulfillmentResult{Confirmed: true, EmailSent: true}, nil
}

// session revocations

type fakeRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newFakeRevocations() *fakeRevocations {
	return &fakeRevocations{revoked: map[string]time.Duration{}}
}

func (f *fakeRevocations) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = ttl
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[jti]
	return ok, nil
}

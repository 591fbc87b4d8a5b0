package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/UVMHacks2025/BashProShop/internal/domain/listing"
	"github.com/UVMHacks2025/BashProShop/internal/http/middlewares"
	"github.com/UVMHacks2025/BashProShop/internal/payment"
	"github.com/UVMHacks2025/BashProShop/internal/utils"
	"github.com/gin-gonic/gin"
)

const checkoutCurrency = "usd"

type CheckoutBridge interface {
	CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (payment.Session, error)
	CheckSession(ctx context.Context, id string) (payment.Session, error)
}

type CheckoutHandler struct {
	listings ListingReader
	bridge   CheckoutBridge
	baseURL  string
	log      *slog.Logger
}

// NewCheckoutHandler builds success and cancel URLs under baseURL.
func NewCheckoutHandler(listings ListingReader, bridge CheckoutBridge, baseURL string, log *slog.Logger) *CheckoutHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CheckoutHandler{
		listings: listings,
		bridge:   bridge,
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      log,
	}
}

type checkoutRequest struct {
	ListingID string `json:"id" form:"id" binding:"required,uuid"`
}

// Checkout shows what the caller is about to pay for.
func (h *CheckoutHandler) Checkout(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	id := strings.TrimSpace(ctx.Query("id"))
	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "Invalid listing id", gin.H{"field": "id"})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	l, ok := loadListing(ctx, cctx, h.listings, id, h.log)
	if !ok {
		return
	}

	if l.SellerID == userID {
		RespondForbidden(ctx, "You cannot buy your own listing")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"listing":  summarize(l),
		"amount":   payment.FormatMinorUnits(l.PriceCents),
		"currency": checkoutCurrency,
		"action":   "/create_checkout_session",
	})
}

// CreateCheckoutSession opens a hosted payment page for one listing and
// redirects the browser there. The seller check runs before the processor
// is contacted.
func (h *CheckoutHandler) CreateCheckoutSession(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req checkoutRequest
	if !Bind(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 15*time.Second)
	defer cancel()

	l, ok := loadListing(ctx, cctx, h.listings, req.ListingID, h.log)
	if !ok {
		return
	}

	if l.SellerID == userID {
		h.log.WarnContext(ctx.Request.Context(), "checkout blocked: seller is buyer", "listing_id", l.ID)
		RespondForbidden(ctx, "You cannot buy your own listing")
		return
	}

	email, _ := middlewares.EmailFromContext(ctx)

	s, err := h.bridge.CreateCheckoutSession(cctx, payment.CheckoutRequest{
		LineItems: []payment.LineItem{{
			Name:       l.Name,
			UnitAmount: l.PriceCents,
			Currency:   checkoutCurrency,
			Quantity:   1,
		}},
		SuccessURL:    h.baseURL + "/payment_success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     h.baseURL + "/payment_cancel",
		CustomerEmail: email,
		Metadata: map[string]string{
			payment.MetaListingID:   l.ID,
			payment.MetaListingName: l.Name,
			payment.MetaBuyerID:     userID,
			payment.MetaSellerID:    l.SellerID,
		},
	})
	if err != nil {
		// the bridge already logged the processor error
		ctx.Redirect(http.StatusSeeOther, h.baseURL+"/payment_cancel")
		return
	}

	ctx.Redirect(http.StatusSeeOther, s.URL)
}

// PaymentSuccess is the processor's return URL. When a session id is present
// its current state is reported; fulfillment itself happens on the webhook.
func (h *CheckoutHandler) PaymentSuccess(ctx *gin.Context) {
	resp := gin.H{"status": "success"}

	if id := strings.TrimSpace(ctx.Query("session_id")); id != "" && h.bridge != nil {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), 10*time.Second)
		defer cancel()

		s, err := h.bridge.CheckSession(cctx, id)
		if err != nil {
			resp["sessionStatus"] = payment.StateUnknown.String()
		} else {
			resp["sessionStatus"] = s.State.String()
			resp["paid"] = s.State == payment.StateComplete
		}
	}

	ctx.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) PaymentCancel(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func summarize(l listing.Listing) gin.H {
	return gin.H{
		"id":         l.ID,
		"name":       l.Name,
		"priceCents": l.PriceCents,
		"sellerId":   l.SellerID,
		"rental":     l.IsRental(),
	}
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/UVMHacks2025/BashProShop/internal/domain/cart"
	"github.com/UVMHacks2025/BashProShop/internal/domain/listing"
	"github.com/gin-gonic/gin"
)

type CartStore interface {
	Add(ctx context.Context, clientID, listingID string) (cart.Item, error)
	ListByClient(ctx context.Context, clientID string) ([]cart.ItemView, error)
}

type ListingReader interface {
	GetByID(ctx context.Context, id string) (listing.Listing, error)
}

type CartHandler struct {
	cart     CartStore
	listings ListingReader
	log      *slog.Logger
}

func NewCartHandler(c CartStore, listings ListingReader, log *slog.Logger) *CartHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CartHandler{cart: c, listings: listings, log: log}
}

func (h *CartHandler) AddToCart(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req cart.AddRequest
	if !Bind(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	l, ok := loadListing(ctx, cctx, h.listings, req.ListingID, h.log)
	if !ok {
		return
	}

	if l.SellerID == userID {
		RespondForbidden(ctx, cart.ErrOwnListing.Error())
		return
	}

	item, err := h.cart.Add(cctx, userID, l.ID)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "cart.add failed", "listing_id", l.ID, "err", err)
		RespondInternal(ctx, "Could not add to cart")
		return
	}

	ctx.JSON(http.StatusOK, item)
}

func (h *CartHandler) ViewCart(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, err := h.cart.ListByClient(cctx, userID)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "cart.list failed", "err", err)
		RespondInternal(ctx, "Could not load cart")
		return
	}

	var total int64
	for _, it := range items {
		total += it.PriceCents
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items":      items,
		"count":      len(items),
		"totalCents": total,
	})
}

// loadListing fetches a listing and writes the 404/500 itself on failure.
func loadListing(ctx *gin.Context, cctx context.Context, repo ListingReader, id string, log *slog.Logger) (listing.Listing, bool) {
	l, err := repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			RespondNotFound(ctx, "Listing not found")
			return listing.Listing{}, false
		}
		log.ErrorContext(ctx.Request.Context(), "listings.get failed", "listing_id", id, "err", err)
		RespondInternal(ctx, "Could not fetch listing")
		return listing.Listing{}, false
	}
	return l, true
}

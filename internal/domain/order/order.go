package order

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	ID                string    `json:"id"`
	ListingID         string    `json:"listingId"`
	BuyerID           string    `json:"buyerId"`
	SellerID          string    `json:"sellerId"`
	CheckoutSessionID string    `json:"checkoutSessionId"`
	Date              time.Time `json:"date"`
}

func New(listingID, buyerID, sellerID, sessionID string) Order {
	return Order{
		ID:                uuid.NewString(),
		ListingID:         listingID,
		BuyerID:           buyerID,
		SellerID:          sellerID,
		CheckoutSessionID: sessionID,
		Date:              time.Now().UTC(),
	}
}

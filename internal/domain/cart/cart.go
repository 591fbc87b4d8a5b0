package cart

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrOwnListing = errors.New("sellers cannot buy their own listing")

type Item struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"clientId"`
	ListingID string    `json:"listingId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ItemView is a cart row joined with the listing it points at.
type ItemView struct {
	Item
	ListingName string `json:"listingName"`
	PriceCents  int64  `json:"priceCents"`
	SellerID    string `json:"sellerId"`
}

type AddRequest struct {
	ListingID string `json:"id" form:"id" binding:"required,uuid"`
}

func NewItem(clientID, listingID string) Item {
	return Item{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		ListingID: listingID,
		CreatedAt: time.Now().UTC(),
	}
}
